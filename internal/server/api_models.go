package server

import (
	"github.com/raysh454/pagewatch/internal/diffview"
	"github.com/raysh454/pagewatch/internal/scheduler"
	"github.com/raysh454/pagewatch/internal/search"
	"github.com/raysh454/pagewatch/internal/watcher"
)

type addURLRequest struct {
	URL string `json:"url"`
}

type addURLResponse struct {
	URL string `json:"url"`
}

type observeRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type observeResponse struct {
	Outcome watcher.Outcome       `json:"outcome"`
	Record  *watcher.ChangeRecord `json:"record,omitempty"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Options search.Options `json:"options"`
}

type searchResponse struct {
	Results []search.Result `json:"results"`
}

type reportResponse struct {
	Report string `json:"report"`
}

type diffRequest struct {
	// Either URL+RecordID (diff a stored change) or OldContent+NewContent
	// (diff arbitrary content).
	URL        string        `json:"url,omitempty"`
	RecordID   string        `json:"record_id,omitempty"`
	OldContent string        `json:"old_content,omitempty"`
	NewContent string        `json:"new_content,omitempty"`
	Mode       diffview.Mode `json:"mode,omitempty"`
}

type diffResponse struct {
	Old     diffview.View    `json:"old"`
	New     diffview.View    `json:"new"`
	Summary diffview.Summary `json:"summary"`
}

type runChecksRequest struct {
	// URL limits the run to one URL; empty runs a full pass.
	URL string `json:"url,omitempty"`
}

type runChecksResponse struct {
	Results []scheduler.CheckResult `json:"results"`
}
