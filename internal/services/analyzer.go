package services

import (
	"regexp"
	"strings"

	"github.com/routewise/routewise/internal/models"
)

// Complexity signal weights. The final score is the clamped sum of the
// independent signals.
const (
	charsPerToken        = 4
	lengthTokenCap       = 4000
	lengthWeight         = 0.30
	codeWeight           = 0.25
	errorWeight          = 0.40
	analyticalWeight     = 0.20
	analyticalMatchLimit = 3
)

// Pre-compiled detectors. Task type detection and the boolean feature
// detectors are independent: a prompt can be typed "debugging" while also
// flagging has_code and has_data.
var (
	codeBlockRegex  = regexp.MustCompile("```")
	codeTokenRegex  = regexp.MustCompile(`\b(func|function|def|class|import|return|const|var|let|struct|interface|undefined|null|nil)\b`)
	codeSyntaxRegex = regexp.MustCompile(`[{};]|\(\)|=>|::`)

	errorWordRegex  = regexp.MustCompile(`(?i)\b(error|exception|traceback|panic|segfault|stack trace)\b`)
	errorClassRegex = regexp.MustCompile(`\b\w+(Error|Exception)\b`)

	dataRegex = regexp.MustCompile(`(?i)\b(json|csv|sql|xml|yaml|dataframe|dataset|table|schema)\b`)

	analyticalRegex = regexp.MustCompile(`(?i)\b(analyze|compare|evaluate|trade-?offs?|pros and cons|step by step|architecture|optimi[sz]e|strategy|implications?)\b`)

	debuggingTypeRegex = regexp.MustCompile(`(?i)\b(fix|debug|bug|broken|not working|fails?|crash)\b`)
	codeTypeRegex      = regexp.MustCompile(`(?i)\b(implement|refactor|write (a |an )?(function|script|program|class|method)|code|algorithm)\b`)
	reasoningTypeRegex = regexp.MustCompile(`(?i)\b(why|how does|analyze|compare|evaluate|explain|reason|prove)\b`)
	writingTypeRegex   = regexp.MustCompile(`(?i)\b(write|draft|compose|summarize|essay|article|blog|email|story|documentation)\b`)
)

// TaskAnalysis is the per-request feature snapshot fed to the selector.
// It is immutable and embedded into the routing decision when persisted.
type TaskAnalysis struct {
	TaskType        string  `json:"task_type"`
	ComplexityScore float64 `json:"complexity_score"`
	EstimatedTokens int     `json:"estimated_tokens"`
	ContextLength   int     `json:"context_length"`
	HasCode         bool    `json:"has_code"`
	HasErrors       bool    `json:"has_errors"`
	HasData         bool    `json:"has_data"`
}

// AnalyzerService extracts task features and a complexity score from a raw
// request. It is stateless and never fails: empty input degrades to the
// lowest complexity and the default "query" type.
type AnalyzerService struct{}

func NewAnalyzerService() *AnalyzerService {
	return &AnalyzerService{}
}

// Analyze inspects the prompt and optional context text.
func (s *AnalyzerService) Analyze(prompt, context string) *TaskAnalysis {
	combined := prompt
	if context != "" {
		combined = prompt + "\n" + context
	}

	estimatedTokens := len(combined) / charsPerToken

	hasCode := detectCode(combined)
	hasErrors := detectErrors(combined)
	hasData := dataRegex.MatchString(combined)

	score := lengthSignal(estimatedTokens)
	if hasCode {
		score += codeWeight
	}
	if hasErrors {
		score += errorWeight
	}
	score += analyticalSignal(combined)

	return &TaskAnalysis{
		TaskType:        detectTaskType(combined, hasCode, hasErrors),
		ComplexityScore: clamp01(score),
		EstimatedTokens: estimatedTokens,
		ContextLength:   len(context),
		HasCode:         hasCode,
		HasErrors:       hasErrors,
		HasData:         hasData,
	}
}

// lengthSignal contributes proportionally to the estimated token count,
// capped at lengthTokenCap tokens.
func lengthSignal(tokens int) float64 {
	if tokens > lengthTokenCap {
		tokens = lengthTokenCap
	}
	return float64(tokens) / lengthTokenCap * lengthWeight
}

// analyticalSignal scales with the number of analytical phrases present.
func analyticalSignal(text string) float64 {
	matches := analyticalRegex.FindAllString(text, analyticalMatchLimit)
	return float64(len(matches)) / analyticalMatchLimit * analyticalWeight
}

func detectCode(text string) bool {
	return codeBlockRegex.MatchString(text) ||
		codeTokenRegex.MatchString(text) ||
		codeSyntaxRegex.MatchString(text)
}

func detectErrors(text string) bool {
	return errorWordRegex.MatchString(text) || errorClassRegex.MatchString(text)
}

// detectTaskType tests categories in priority order and returns the first
// match: debugging > code > reasoning > writing > query.
func detectTaskType(text string, hasCode, hasErrors bool) string {
	lower := strings.ToLower(text)

	if hasErrors || debuggingTypeRegex.MatchString(lower) {
		return models.TaskTypeDebugging
	}
	if hasCode || codeTypeRegex.MatchString(lower) {
		return models.TaskTypeCode
	}
	if reasoningTypeRegex.MatchString(lower) {
		return models.TaskTypeReasoning
	}
	if writingTypeRegex.MatchString(lower) {
		return models.TaskTypeWriting
	}
	return models.TaskTypeQuery
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
