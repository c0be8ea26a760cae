package models

type AnalysisRequest struct {
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
}

type AnalyzedContent struct {
	AnalysisRequest
	SentimentLabel  SentimentLabel `json:"sentiment_label"`
	Confidence      float64        `json:"confidence"`
	Timestamp       string         `json:"timestamp"`
	SentimentSource string         `json:"sentiment_source"`
}
