package model

type QueryRequest struct {
	EventID           string   `json:"event_id"`
	QueryText         string   `json:"query_text"`
	TopK              int      `json:"top_k"`
	Country           *string  `json:"country,omitempty"`
	Committee         *string  `json:"committee,omitempty"`
	Agenda            *string  `json:"agenda,omitempty"`
	UseRAG            *bool    `json:"use_rag,omitempty"`
	SelectedSourceIDs []string `json:"selected_sources,omitempty"`
}

type ContextChunk struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

type QueryResponse struct {
	Success          bool           `json:"success"`
	FinalAnswer      string         `json:"final_answer"`
	RetrievedContext []ContextChunk `json:"retrieved_context"`
}
