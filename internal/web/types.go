package web

import (
	"html/template"

	"wikidock/internal/history"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML

	Documents []string
	Templates []string

	Document     string
	SessionID    string
	AttachmentID string
	ContentURL   string
	SocketURL    string

	SourceHTML template.HTML
	HelpHTML   template.HTML
	History    []history.Entry
	Toasts     []Toast
}
