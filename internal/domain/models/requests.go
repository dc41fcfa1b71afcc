package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

type ChartRequest struct {
	Symbol   string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"required,alphanum,uppercase"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
}

type CaptionHTTPRequest struct {
	Pair      string   `json:"pair" validate:"required"`
	Interval  string   `json:"interval" validate:"required"`
	Signals   []Signal `json:"signals" validate:"dive"`
	LastPrice float64  `json:"lastPrice"`
}

type CastHTTPRequest struct {
	Text       string  `json:"text" validate:"required,max=1024"`
	Embeds     []Embed `json:"embeds" validate:"max=2,dive"`
	SignerUUID string  `json:"signerUuid"`
	Pair       string  `json:"pair"`
	Interval   string  `json:"interval"`
	ImageURL   string  `json:"imageUrl"`
	FrameURL   string  `json:"frameUrl"`
}

type UploadRequest struct {
	Filename string `query:"filename" default:"chart.png" validate:"max=255"`
}

type FrameRequest struct {
	Pair     string `query:"pair" default:"BTCUSDT" validate:"required"`
	Interval string `query:"interval" default:"1h" validate:"required"`
	Img      string `query:"img" validate:"omitempty,url"`
}
