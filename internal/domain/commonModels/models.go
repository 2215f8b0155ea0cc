package commonModels

import "time"

// SourceDocument is an approved document as published by the platform.
// Text is the extracted full text; FilePath is set when text still has to
// be extracted from the stored original.
type SourceDocument struct {
	Id        int64     `json:"document_id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Country   string    `json:"country" db:"country"`
	Text      string    `json:"text" db:"text"`
	FilePath  string    `json:"file_path" db:"file_path"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SourceDocumentInfo is the listing form used for staleness checks.
type SourceDocumentInfo struct {
	Id        int64     `json:"document_id" db:"id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
