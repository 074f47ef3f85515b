package logging

import (
	"sync"
	"time"
)

// ErrorCategory buckets reported failures by the subsystem they came
// from, so operators can tell a flaky device apart from a broken
// behavior script.
type ErrorCategory string

const (
	ErrorCategoryStep     ErrorCategory = "step"
	ErrorCategoryBehavior ErrorCategory = "behavior"
	ErrorCategoryDevice   ErrorCategory = "device"
	ErrorCategoryHistory  ErrorCategory = "history"
	ErrorCategorySystem   ErrorCategory = "system"
)

// ErrorSeverity represents how urgent a reported failure is.
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// ErrorReport is one recorded failure.
type ErrorReport struct {
	Timestamp   time.Time
	Category    ErrorCategory
	Severity    ErrorSeverity
	Component   string
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
}

// ErrorCallback is called when a matching error is reported.
type ErrorCallback func(report *ErrorReport)

// ErrorReporter collects run and step failures into a bounded history,
// logs them at a level matching their severity, and fans them out to
// registered callbacks. The driver reports through it; control surfaces
// read RecentErrors back out.
type ErrorReporter struct {
	logger     *Logger
	historyMu  sync.RWMutex
	history    []*ErrorReport
	maxHistory int

	callbacksMu sync.RWMutex
	callbacks   map[ErrorSeverity][]ErrorCallback
}

// NewErrorReporter creates an error reporter with a bounded history.
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{
		logger:     NewLogger("ErrorReporter"),
		history:    make([]*ErrorReport, 0),
		maxHistory: 500,
		callbacks:  make(map[ErrorSeverity][]ErrorCallback),
	}
}

// SetLogger replaces the logger failures are written through.
func (er *ErrorReporter) SetLogger(logger *Logger) {
	er.logger = logger
}

// Report records a failure, logs it, and invokes matching callbacks.
func (er *ErrorReporter) Report(report *ErrorReport) {
	report.Timestamp = time.Now()

	er.logError(report)
	er.addToHistory(report)
	er.invokeCallbacks(report)
}

// ReportError records a recoverable failure.
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, component, message string, err error) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Component:   component,
		Message:     message,
		Err:         err,
		Recoverable: true,
	})
}

// ReportErrorWithContext records a recoverable failure with extra fields.
func (er *ErrorReporter) ReportErrorWithContext(category ErrorCategory, severity ErrorSeverity, component, message string, err error, context map[string]any) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Component:   component,
		Message:     message,
		Err:         err,
		Context:     context,
		Recoverable: true,
	})
}

// ReportCritical records a non-recoverable failure.
func (er *ErrorReporter) ReportCritical(category ErrorCategory, component, message string, err error, context map[string]any) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    ErrorSeverityCritical,
		Component:   component,
		Message:     message,
		Err:         err,
		Context:     context,
		Recoverable: false,
	})
}

func (er *ErrorReporter) logError(report *ErrorReport) {
	context := map[string]any{
		"category":    string(report.Category),
		"severity":    string(report.Severity),
		"component":   report.Component,
		"recoverable": report.Recoverable,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityCritical:
		er.logger.log(LogLevelFatal, report.Message, report.Err, context)
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Err, context)
	case ErrorSeverityMedium:
		er.logger.WarnWithContext(report.Message, context)
	case ErrorSeverityLow:
		er.logger.InfoWithContext(report.Message, context)
	}
}

func (er *ErrorReporter) addToHistory(report *ErrorReport) {
	er.historyMu.Lock()
	defer er.historyMu.Unlock()

	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
}

func (er *ErrorReporter) invokeCallbacks(report *ErrorReport) {
	er.callbacksMu.RLock()
	callbacks := er.callbacks[report.Severity]
	er.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		go callback(report)
	}
}

// OnError registers a callback for a specific error severity.
func (er *ErrorReporter) OnError(severity ErrorSeverity, callback ErrorCallback) {
	er.callbacksMu.Lock()
	defer er.callbacksMu.Unlock()

	er.callbacks[severity] = append(er.callbacks[severity], callback)
}

// RecentErrors returns the n most recent reports, oldest first.
func (er *ErrorReporter) RecentErrors(n int) []*ErrorReport {
	er.historyMu.RLock()
	defer er.historyMu.RUnlock()

	if n > len(er.history) {
		n = len(er.history)
	}
	result := make([]*ErrorReport, n)
	copy(result, er.history[len(er.history)-n:])
	return result
}

// ErrorsByCategory returns the most recent reports in a category.
func (er *ErrorReporter) ErrorsByCategory(category ErrorCategory, limit int) []*ErrorReport {
	er.historyMu.RLock()
	defer er.historyMu.RUnlock()

	result := make([]*ErrorReport, 0)
	for i := len(er.history) - 1; i >= 0 && len(result) < limit; i-- {
		if er.history[i].Category == category {
			result = append(result, er.history[i])
		}
	}
	return result
}

// Clear drops the error history.
func (er *ErrorReporter) Clear() {
	er.historyMu.Lock()
	defer er.historyMu.Unlock()

	er.history = make([]*ErrorReport, 0)
}
