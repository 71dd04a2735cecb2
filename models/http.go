package models

import "encoding/json"

// PatientData is the request body accepted by POST /queue. The server derives
// the queue entry (identifier, timestamps, priority) from it.
type PatientData struct {
	Triage    TriageResult     `json:"triage"`
	Quality   *QualityResult   `json:"quality,omitempty"`
	Whisper   *WhisperResult   `json:"whisper,omitempty"`
	WER       *WERResult       `json:"wer,omitempty"`
	Agreement *AgreementResult `json:"agreement,omitempty"`
	Features  map[string]any   `json:"features,omitempty"`
	Notes     string           `json:"notes"`
}

// TriageResult is the classifier output part of [PatientData].
type TriageResult struct {
	Level         TriageLevel `json:"level"`
	Score         int         `json:"score"`
	Confidence    int         `json:"confidence"`
	Message       string      `json:"message,omitempty"`
	Action        string      `json:"action,omitempty"`
	Flags         []any       `json:"flags,omitempty"`
	DetailedFlags []any       `json:"detailedFlags,omitempty"`
}

type QualityResult struct {
	SNRDB            *float64 `json:"snr_db,omitempty"`
	SpeechPercentage *float64 `json:"speech_percentage,omitempty"`
	IsReliable       bool     `json:"is_reliable"`
}

type WhisperResult struct {
	Transcription   string   `json:"transcription,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	AvgLogprob      *float64 `json:"avg_logprob,omitempty"`
}

type WERResult struct {
	WER      *float64 `json:"wer,omitempty"`
	Severity string   `json:"severity,omitempty"`
}

type AgreementResult struct {
	AgreementPercentage *int   `json:"agreementPercentage,omitempty"`
	ConsensusLevel      string `json:"consensusLevel,omitempty"`
	OverallVerdict      string `json:"overallVerdict,omitempty"`
}

// StatusUpdate is the request body accepted by PATCH /queue/{id}. Status is
// mandatory on the wire; the other fields are only written when present.
type StatusUpdate struct {
	Status     QueueStatus `json:"status"`
	Notes      *string     `json:"notes,omitempty"`
	ReviewedBy *string     `json:"reviewed_by,omitempty"`
	ReferredTo *string     `json:"referred_to,omitempty"`
}

// QueueResponse is returned by GET /queue.
type QueueResponse struct {
	Status   string      `json:"status"`
	Patients []QueueItem `json:"patients"`
	Stats    QueueStats  `json:"stats"`
	Count    int         `json:"count"`
}

// AddPatientResponse is returned by POST /queue.
type AddPatientResponse struct {
	Status    string `json:"status"`
	PatientID string `json:"patient_id"`
	Priority  int    `json:"priority"`
	Message   string `json:"message,omitempty"`
}

// PatientResponse is returned by GET /queue/{id}.
type PatientResponse struct {
	Status  string    `json:"status"`
	Patient QueueItem `json:"patient"`
}

// StatsResponse is returned by GET /queue/stats/summary.
type StatsResponse struct {
	Status string     `json:"status"`
	Stats  QueueStats `json:"stats"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewPatientData rebuilds the creation request for an entry that was queued
// locally. Opaque JSON fields that fail to decode are dropped.
func NewPatientData(item QueueItem) PatientData {
	data := PatientData{
		Triage: TriageResult{
			Level:      item.TriageLevel,
			Score:      item.TriageScore,
			Confidence: item.TriageConfidence,
			Message:    item.TriageMessage,
			Action:     item.TriageAction,
		},
		Quality: &QualityResult{
			SNRDB:            item.SNRDB,
			SpeechPercentage: item.SpeechPercentage,
			IsReliable:       item.QualityIsReliable,
		},
		Notes: item.Notes,
	}
	_ = json.Unmarshal(item.Flags, &data.Triage.Flags)
	_ = json.Unmarshal(item.DetailedFlags, &data.Triage.DetailedFlags)
	_ = json.Unmarshal(item.Features, &data.Features)

	if item.WhisperTranscription != "" || item.WhisperConfidence != nil || item.WhisperAvgLogprob != nil {
		data.Whisper = &WhisperResult{
			Transcription:   item.WhisperTranscription,
			ConfidenceScore: item.WhisperConfidence,
			AvgLogprob:      item.WhisperAvgLogprob,
		}
	}
	if item.WERScore != nil || item.WERSeverity != "" {
		data.WER = &WERResult{WER: item.WERScore, Severity: item.WERSeverity}
	}
	if item.AgreementPercentage != nil || item.AgreementConsensus != "" || item.AgreementVerdict != "" {
		data.Agreement = &AgreementResult{
			AgreementPercentage: item.AgreementPercentage,
			ConsensusLevel:      item.AgreementConsensus,
			OverallVerdict:      item.AgreementVerdict,
		}
	}
	return data
}
