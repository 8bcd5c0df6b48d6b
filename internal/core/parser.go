package core

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// The checklist grammar is deliberately small:
//
//	taskline  := "- [" status "] " id [" @" agent] " " freetext
//	status    := " " | "x"
//	id        := [A-Z][0-9]+ | "local-" [0-9]+
//	heading   := "#"+ " " text
//
// Lines that do not match the task line grammar never produce a record; they
// are only inspected for heading and metadata detection. Indented metadata
// blocks written beneath a task are cosmetic output and are not re-parsed.

var (
	taskIDPattern   = regexp.MustCompile(`^(?:[A-Z]\d+|local-\d+)$`)
	agentPattern    = regexp.MustCompile(`^@[\w-]+$`)
	priorityMarker  = regexp.MustCompile(`\(PRIORITY\s+(\d+)\)`)
	headingStripper = regexp.MustCompile(`^[#\s]+`)
)

// taskLine is the tokenized form of one checklist line.
type taskLine struct {
	checked bool
	id      string
	agent   string
	rest    string
}

// tokenizeTaskLine splits a raw line into checkbox, ID, optional agent, and
// free text. Returns false for any line outside the grammar, including lines
// whose ID token does not match either ID family.
func tokenizeTaskLine(raw string) (taskLine, bool) {
	var tl taskLine

	switch {
	case strings.HasPrefix(raw, "- [ ] "):
		tl.checked = false
	case strings.HasPrefix(raw, "- [x] "):
		tl.checked = true
	default:
		return tl, false
	}
	rest := strings.TrimSpace(raw[len("- [x] "):])

	idToken, rest := nextToken(rest)
	idToken = strings.TrimSuffix(idToken, ":")
	idToken = strings.Trim(idToken, "*")
	idToken = strings.TrimSuffix(idToken, ":")
	if !taskIDPattern.MatchString(idToken) {
		return tl, false
	}
	tl.id = idToken

	if tok, remainder := nextToken(rest); agentPattern.MatchString(tok) {
		tl.agent = strings.TrimPrefix(tok, "@")
		rest = remainder
	}

	tl.rest = strings.TrimSpace(rest)
	return tl, true
}

// nextToken splits off the first whitespace-delimited token.
func nextToken(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// DocumentParser converts checklist documents into task records plus
// document metadata. It performs no writes.
type DocumentParser struct {
	cfg *models.WorkspaceConfig
}

// NewDocumentParser creates a DocumentParser for the given workspace.
func NewDocumentParser(cfg *models.WorkspaceConfig) *DocumentParser {
	return &DocumentParser{cfg: cfg}
}

// ParseAll parses the root document and, when present, the auxiliary local
// tasks document, concatenating their task lists. Duplicate IDs across the
// two documents are not deduplicated here; that responsibility belongs to
// the synchronizer. Metadata from the root document wins: a later document's
// title never overwrites one already set.
func (p *DocumentParser) ParseAll() (*models.ParseResult, error) {
	result := &models.ParseResult{
		Metadata: models.DocumentMetadata{
			Structure:  models.StructureMonolithic,
			HasSpecs:   dirExists(SpecsDirPath(p.cfg)),
			HasSpecify: dirExists(SpecifyDirPath(p.cfg)),
		},
	}

	rootMeta, rootTasks, err := p.parseFile(TasksPath(p.cfg), false)
	if err != nil {
		return nil, err
	}
	result.Tasks = append(result.Tasks, rootTasks...)
	if rootMeta.Title != "" {
		result.Metadata.Title = rootMeta.Title
	}
	if rootMeta.Structure == models.StructureSpecFolder {
		result.Metadata.Structure = models.StructureSpecFolder
	}

	auxPath := LocalTasksPath(p.cfg)
	if fileExists(auxPath) {
		auxMeta, auxTasks, err := p.parseFile(auxPath, true)
		if err != nil {
			return nil, err
		}
		result.Tasks = append(result.Tasks, auxTasks...)
		if result.Metadata.Title == "" && auxMeta.Title != "" {
			result.Metadata.Title = auxMeta.Title
		}
		if len(auxTasks) > 0 {
			result.Metadata.Structure = models.StructureSpecFolder
		}
	}

	return result, nil
}

// parseFile scans one document. A missing file yields no tasks and no error;
// absent data is not malformed data.
func (p *DocumentParser) parseFile(path string, inSpecFolder bool) (models.DocumentMetadata, []models.Task, error) {
	meta := models.DocumentMetadata{Structure: models.StructureMonolithic}
	if inSpecFolder {
		meta.Structure = models.StructureSpecFolder
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil, nil
		}
		return meta, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var tasks []models.Task
	section := ""
	specToken := p.cfg.SpecsDir + "/"

	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, " \t\r")

		if strings.HasPrefix(line, "# ") && meta.Title == "" {
			meta.Title = strings.TrimSpace(line[2:])
		}
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ") {
			section = cleanHeading(line)
		}
		if strings.Contains(line, "→") || strings.Contains(line, specToken) {
			meta.Structure = models.StructureSpecFolder
		}

		tl, ok := tokenizeTaskLine(line)
		if !ok {
			continue
		}
		task := p.buildTask(tl, section, path, i+1)
		tasks = append(tasks, task)
	}

	return meta, tasks, nil
}

// buildTask converts a tokenized line into a Task, extracting the inline
// [P] and (PRIORITY n) markers from the free text.
func (p *DocumentParser) buildTask(tl taskLine, section, source string, lineNo int) models.Task {
	status := models.StatusPending
	if tl.checked {
		status = models.StatusCompleted
	}

	agent := tl.agent
	if agent == "" {
		agent = p.cfg.DefaultAgent
	}

	description := strings.TrimSpace(strings.TrimSuffix(tl.rest, "✅"))

	parallel := strings.Contains(description, "[P]")
	if parallel {
		description = strings.TrimSpace(strings.ReplaceAll(description, "[P]", ""))
	}

	var priority *int
	if m := priorityMarker.FindStringSubmatch(description); m != nil {
		if value, err := strconv.Atoi(m[1]); err == nil {
			priority = &value
		}
		description = strings.TrimSpace(priorityMarker.ReplaceAllString(description, ""))
		description = strings.Join(strings.Fields(description), " ")
	}

	return models.Task{
		ID:          tl.id,
		Description: description,
		Status:      status,
		Agent:       agent,
		Type:        models.TaskTypeUpdate,
		Scope:       append([]string(nil), DefaultScope...),
		QACommands:  []string{p.cfg.DefaultQACommand},
		Priority:    priority,
		Parallel:    parallel,
		Section:     section,
		Source:      source,
		Line:        lineNo,
		GitHub:      models.GitHubSync{},
		Created:     time.Time{},
		Updated:     time.Time{},
	}
}

// cleanHeading strips leading hashes and trailing decorative glyphs from a
// section heading line.
func cleanHeading(line string) string {
	s := headingStripper.ReplaceAllString(line, "")
	s = strings.TrimRight(s, "#✅🚀⭐ \t")
	return strings.TrimSpace(s)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
