// Package models defines data structures for configuration, descriptors and listing metadata.
package models

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultIndexFile  = "index.json"
)

// Selectors holds the structural queries used to extract listing data.
// Defaults match the car listing site the tool was written for.
type Selectors struct {
	Images       string `yaml:"images"`
	ThumbToken   string `yaml:"thumb_token"`
	FullToken    string `yaml:"full_token"`
	Mileage      string `yaml:"mileage"`
	MileageIndex int    `yaml:"mileage_index"` // zero-based position among all matches
	Model        string `yaml:"model"`
	Price        string `yaml:"price"`
	PriceSuffix  string `yaml:"price_suffix"`
	Tel          string `yaml:"tel"`
}

// Config holds runtime configuration for the build and crawl commands.
type Config struct {
	OutputRoot        string        `yaml:"output_root"`
	TemplatesDir      string        `yaml:"templates_dir"`
	DescriptorsDir    string        `yaml:"descriptors_dir"`
	IndexFile         string        `yaml:"index_file"`
	FFmpegBinary      string        `yaml:"ffmpeg_binary"`
	VideoCodec        string        `yaml:"video_codec"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	JPEGQuality       int           `yaml:"jpeg_quality"`
	CaptionBackground string        `yaml:"caption_background"`
	MaxFontSize       int           `yaml:"max_font_size"`
	DBPath            string        `yaml:"db_path"` // empty disables the run ledger
	Selectors         Selectors     `yaml:"selectors"`
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		OutputRoot:        ".",
		TemplatesDir:      "templates",
		DescriptorsDir:    "descriptors",
		IndexFile:         DefaultIndexFile,
		FFmpegBinary:      "ffmpeg",
		VideoCodec:        "mpeg4",
		HTTPTimeout:       30 * time.Second,
		UserAgent:         "adbuilder/1.0",
		JPEGQuality:       95,
		CaptionBackground: "#FFFF00",
		MaxFontSize:       512,
		DBPath:            "adbuilder.db",
		Selectors: Selectors{
			Images:       `img[class="img-responsive"]`,
			ThumbToken:   "thumb/",
			FullToken:    "o_",
			Mileage:      `div.h-carBestDetails.clearfix > div[class="item"]`,
			MileageIndex: 1,
			Model:        `h2[class="h-carName"]`,
			Price:        `span[class="h-carPrice"]`,
			PriceSuffix:  "QAR",
			Tel:          `a[href^="tel:"]`,
		},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// A missing file is not an error. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"ADBUILDER_OUTPUT_ROOT":     &c.OutputRoot,
		"ADBUILDER_TEMPLATES_DIR":   &c.TemplatesDir,
		"ADBUILDER_DESCRIPTORS_DIR": &c.DescriptorsDir,
		"ADBUILDER_FFMPEG":          &c.FFmpegBinary,
		"ADBUILDER_DB":              &c.DBPath,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v := os.Getenv("ADBUILDER_JPEG_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADBUILDER_JPEG_QUALITY %q: %w", v, err)
		}
		c.JPEGQuality = q
	}
	return nil
}
