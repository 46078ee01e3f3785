package mealplanner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerationLogger is the interface for recording pipeline phases of a generation run.
type GenerationLogger interface {
	LogPhase(phase PhaseLog) error
}

// NewGenerationLogFilePath returns a file path under dir named after the run label so logs of different users are easy to tell apart.
// The label never leaves dir: separators become underscores and dot-only labels are replaced.
func NewGenerationLogFilePath(dir, label string) string {
	return filepath.Join(dir, fmt.Sprintf("%d.%s.json", time.Now().Unix(), logLabel(label)))
}

var labelReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

func logLabel(label string) string {
	label = labelReplacer.Replace(strings.ToLower(strings.TrimSpace(label)))
	if strings.Trim(label, ".") == "" {
		return "anonymous"
	}
	return label
}

// PhaseLog represents one phase of the generation pipeline
type PhaseLog struct {
	Phase       string          `json:"phase"`
	Iteration   int             `json:"iteration,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Adjustments []AdjustmentLog `json:"adjustments,omitempty"`
	DayTotals   map[string]int  `json:"day_totals,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// AdjustmentLog represents a single change made to the entry list during a phase
type AdjustmentLog struct {
	Kind         string `json:"kind"`
	Date         string `json:"date"`
	Slot         Slot   `json:"slot"`
	FromRecipeID string `json:"from_recipe_id,omitempty"`
	ToRecipeID   string `json:"to_recipe_id"`
	FromServings int    `json:"from_servings,omitempty"`
	ToServings   int    `json:"to_servings"`
}

// FileGenerationLogger accumulates phases and writes them out on Flush
type FileGenerationLogger struct {
	phases []PhaseLog
	writer io.Writer
}

// NewFileGenerationLogger creates a new file-based generation logger
func NewFileGenerationLogger(writer io.Writer) *FileGenerationLogger {
	return &FileGenerationLogger{
		phases: make([]PhaseLog, 0),
		writer: writer,
	}
}

// LogPhase buffers the phase (does not flush immediately)
func (l *FileGenerationLogger) LogPhase(phase PhaseLog) error {
	l.phases = append(l.phases, phase)
	return nil
}

// Flush writes all buffered phases to the writer
func (l *FileGenerationLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"generation_session": map[string]any{
			"timestamp": time.Now(),
			"phases":    l.phases,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal generation log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write generation log: %w", err)
	}

	l.phases = l.phases[:0]
	return nil
}

// NoOpGenerationLogger discards all phases
type NoOpGenerationLogger struct{}

func NewNoOpGenerationLogger() *NoOpGenerationLogger {
	return &NoOpGenerationLogger{}
}

func (nop *NoOpGenerationLogger) LogPhase(phase PhaseLog) error {
	return nil
}

// StdoutGenerationLogger writes each phase as a JSON line (for Lambda/CloudWatch)
type StdoutGenerationLogger struct {
	out io.Writer
}

func NewStdoutGenerationLogger() *StdoutGenerationLogger {
	return &StdoutGenerationLogger{out: os.Stdout}
}

func (l *StdoutGenerationLogger) LogPhase(phase PhaseLog) error {
	data, err := json.Marshal(phase)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
