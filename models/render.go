package models

// Output kinds of a descriptor.
const (
	KindImage = "image"
	KindVideo = "video"
)

// Render outcomes, shared by the run ledger and the run manifest.
const (
	StatusRendered      = "rendered"
	StatusSkipped       = "skipped"
	StatusMissingAsset  = "missing_asset"
	StatusEncoderFailed = "encoder_failed"
)
