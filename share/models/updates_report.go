package models

import "encoding/json"

// UpdatesReport is the document written to stdout. update_list is keyed by the
// NEVRA of the installed package.
type UpdatesReport struct {
	Releasever     string                      `json:"releasever"`
	Basearch       string                      `json:"basearch"`
	RepositoryList []string                    `json:"repository_list"`
	UpdateList     map[string]AvailableUpdates `json:"update_list"`
	MetadataTime   string                      `json:"metadata_time,omitempty"`
}

type AvailableUpdates struct {
	AvailableUpdates []UpdateEntry `json:"available_updates"`
}

type UpdateEntry struct {
	Package    string `json:"package"`
	Repository string `json:"repository"`
	Basearch   string `json:"basearch"`
	Releasever string `json:"releasever"`
	Erratum    string `json:"erratum,omitempty"`
}

func NewUpdatesReport(releasever, basearch string, repos []string) *UpdatesReport {
	if repos == nil {
		repos = []string{}
	}
	return &UpdatesReport{
		Releasever:     releasever,
		Basearch:       basearch,
		RepositoryList: repos,
		UpdateList:     make(map[string]AvailableUpdates),
	}
}

// Marshal encodes the report as a single line, or indented when pretty is set.
func (r *UpdatesReport) Marshal(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
