package ai

import (
	"encoding/json"

	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/secondary"
)

const systemPrompt = `You revise the records of a focus area in a research package.

You receive a JSON object with the focus area name, the instructions, and its
current records. Each record has an integer "id" and a "properties" object.

Answer with a single JSON object:
{"summary": "<one line describing the change>", "records": [...]}

Each element of "records" is {"id": <id>, "deleted": <bool>, "properties": {...}}.
- To change a record, repeat its id and give the complete new properties.
- To remove a record, repeat its id with "deleted": true.
- To add a record, use "id": "new".
- Records you leave out are kept unchanged. Only list records you change.
Never invent ids that were not given to you.`

type promptRecord struct {
	ID         int64               `json:"id"`
	Properties revision.Properties `json:"properties"`
}

type promptBody struct {
	FocusArea     string         `json:"focus_area"`
	VersionNumber int            `json:"version_number"`
	Instructions  string         `json:"instructions"`
	Records       []promptRecord `json:"records"`
}

func buildUserMessage(prompt secondary.RevisionPrompt) (string, error) {
	body := promptBody{
		FocusArea:     prompt.FocusAreaName,
		VersionNumber: prompt.VersionNumber,
		Instructions:  prompt.Instructions,
		Records:       make([]promptRecord, 0, len(prompt.Records)),
	}
	for _, r := range prompt.Records {
		body.Records = append(body.Records, promptRecord{ID: r.ID, Properties: r.Properties})
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
