package model

import "time"

// Report is the result of processing one lab report document
type Report struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`       // file the lines came from
	ProcessedAt time.Time `json:"processed_at"` // when the run finished

	Records         []LabTestRecord `json:"records"`
	Abnormal        []LabTestRecord `json:"abnormal"`        // status below or above
	Uninterpretable []LabTestRecord `json:"uninterpretable"` // status unknown, surfaced separately
	Unparsed        []UnparsedLine  `json:"unparsed,omitempty"`
	Counts          Counts          `json:"counts"`
	Phones          []string        `json:"phones,omitempty"` // mobile numbers found in the text

	ExplanationEN        string                `json:"explanation_en"`
	ExplanationLocalized *LocalizedExplanation `json:"explanation_localized,omitempty"`

	Speech   *SpeechOutput   `json:"speech,omitempty"`
	Delivery *DeliveryResult `json:"delivery,omitempty"`

	// Stages lists every stage that degraded instead of completing
	Stages []StageIssue `json:"stages,omitempty"`
}

// Counts tallies records by status
type Counts struct {
	Total   int `json:"total"`
	Below   int `json:"below"`
	Within  int `json:"within"`
	Above   int `json:"above"`
	Unknown int `json:"unknown"`
}

// Abnormal returns the number of records outside their printed range
func (c Counts) Abnormal() int {
	return c.Below + c.Above
}

// LocalizedExplanation is the translated narrative
type LocalizedExplanation struct {
	Language string            `json:"language"`
	Backend  string            `json:"backend"`
	Text     string            `json:"text"`
	Flagged  []FlaggedSentence `json:"flagged,omitempty"`
}

// FlaggedSentence is a sentence whose translation could not be trusted.
// The English sentence is emitted in its place.
type FlaggedSentence struct {
	Index   int      `json:"index"`
	English string   `json:"english"`
	Missing []string `json:"missing"` // original spans the translation lost
}

// SpeechOutput describes synthesized audio for the localized narrative
type SpeechOutput struct {
	Provider   string   `json:"provider"`
	Text       string   `json:"text"`
	Chunks     []string `json:"chunks"`
	AudioFiles []string `json:"audio_files,omitempty"`
}

// DeliveryResult reports what the messaging collaborator did
type DeliveryResult struct {
	To        string `json:"to"`
	TextOK    bool   `json:"text_ok"`
	AudioOK   bool   `json:"audio_ok"`
	MessageID string `json:"message_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// StageIssue records a degraded pipeline stage
type StageIssue struct {
	Stage  string    `json:"stage"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// AddIssue appends a stage issue derived from err
func (r *Report) AddIssue(stage string, err error) {
	r.Stages = append(r.Stages, StageIssue{
		Stage:  stage,
		Kind:   KindOf(err),
		Detail: err.Error(),
	})
}
