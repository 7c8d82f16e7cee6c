package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vgen/internal/models"
)

var (
	_ list.Item = jobItem{}
	_ list.Item = qualityItem{}
)

// jobItem wraps [models.Job] to implement [list.Item].
type jobItem struct {
	job models.Job
}

func (i jobItem) FilterValue() string { return i.job.Name }
func (i jobItem) Title() string       { return i.job.Name }
func (i jobItem) Description() string {
	desc := fmt.Sprintf("%s • %d%% • %d/%d videos", i.job.Status, i.job.Percent(), i.job.CompletedVideoCount, i.job.ExpectedVideoCount)
	if i.job.FailedVideoCount > 0 {
		desc = fmt.Sprintf("%s • %d failed", desc, i.job.FailedVideoCount)
	}
	return desc
}

// qualityItem wraps [models.QualityPreset] to implement [list.Item].
type qualityItem struct {
	preset models.QualityPreset
}

func (i qualityItem) FilterValue() string { return i.preset.Label }
func (i qualityItem) Title() string       { return fmt.Sprintf("%s (CRF %d)", i.preset.Label, i.preset.CRF) }
func (i qualityItem) Description() string { return i.preset.Description }

func jobItems(jobs []models.Job) []list.Item {
	items := make([]list.Item, len(jobs))
	for i, job := range jobs {
		items[i] = jobItem{job: job}
	}
	return items
}

func qualityItems() []list.Item {
	qs := models.Qualities()
	items := make([]list.Item, 0, len(qs))
	for _, q := range qs {
		if p, ok := q.Preset(); ok {
			items = append(items, qualityItem{preset: p})
		}
	}
	return items
}
