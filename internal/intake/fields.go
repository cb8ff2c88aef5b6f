package intake

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/model"
)

const (
	defaultTaskTitle  = "Task"
	titleMaxRunes     = domain.MaxTaskTitleLength
	titleTruncateKeep = titleMaxRunes - 3
)

var fillerPrefix = regexp.MustCompile(`(?i)^\s*(please|pls|plz|kindly|can you|could you|would you|can we|could we)\b[\s,:;-]*`)

var taskCategories = map[domain.TaskKey]model.TaskCategory{
	domain.TaskSaleActive:   model.TaskCategoryMarketing,
	domain.TaskSaleSold:     model.TaskCategoryMarketing,
	domain.TaskSaleClosing:  model.TaskCategoryAdmin,
	domain.TaskLeaseActive:  model.TaskCategoryMarketing,
	domain.TaskLeaseLeased:  model.TaskCategoryMarketing,
	domain.TaskLeaseClosing: model.TaskCategoryAdmin,
	domain.TaskOpsMisc:      model.TaskCategoryOther,
}

// CategoryFor maps a task key to its agent task category. Unmapped keys
// fall into OTHER.
func CategoryFor(key domain.TaskKey) model.TaskCategory {
	if c, ok := taskCategories[key]; ok {
		return c
	}
	return model.TaskCategoryOther
}

// TaskTitle prefers the model's title and otherwise derives one from the
// first line of the message.
func TaskTitle(modelTitle *string, text string) string {
	if modelTitle != nil {
		if t := strings.TrimSpace(*modelTitle); t != "" {
			return t
		}
	}
	if t := DeriveTitle(text); t != "" {
		return t
	}
	return defaultTaskTitle
}

// DeriveTitle builds a short task name from free text: first line, filler
// prefix removed, whitespace collapsed, capped at 80 runes.
func DeriveTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	for {
		stripped := fillerPrefix.ReplaceAllString(line, "")
		if stripped == line {
			break
		}
		line = stripped
	}
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return ""
	}

	if utf8.RuneCountInString(line) > titleMaxRunes {
		runes := []rune(line)
		line = string(runes[:titleTruncateKeep]) + "..."
	}

	first, size := utf8.DecodeRuneInString(line)
	return string(unicode.ToUpper(first)) + line[size:]
}

var dueDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseDueDate parses the model's due_date as given. Date-only values are
// midnight in loc; date-times without an offset are wall time in loc.
// Unparseable values yield nil.
func ParseDueDate(raw *string, loc *time.Location) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
