package sandbox

import (
	"errors"
	"time"
)

var (
	ErrExecutionTimeout = errors.New("script execution timeout exceeded")
	ErrRuntimeClosed    = errors.New("sandbox runtime is closed")
)

// AllocationError is the message of the RangeError thrown when a script
// asks for a string or array longer than Config.MaxLength
const AllocationError = "allocation exceeds sandbox limit"

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Execution budget shared by all scripts of one document
	MaxCallStack  int           // Maximum call stack depth
	MaxLength     int           // Longest string or array a script may build in one call
	EnableConsole bool          // Capture console.log/warn/error/info
	EnableDOM     bool          // Expose the document proxy
}

// Result holds execution result
type Result struct {
	Value      interface{}   // Completion value of the script
	Console    []LogEntry    // Console output
	DOMChanges []DOMChange   // DOM modifications
	Duration   time.Duration // Execution time
	Error      error         // Execution error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"` // log, info, warn, error, alert
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// DOMChange represents a DOM modification made by a script
type DOMChange struct {
	Type     string `json:"type"` // set_attribute, set_text, set_html
	Selector string `json:"selector"`
	Property string `json:"property,omitempty"`
	Value    string `json:"value"`
}

// DefaultConfig returns the probe defaults
func DefaultConfig() Config {
	return Config{
		Timeout:       2 * time.Second,
		MaxCallStack:  1024,
		MaxLength:     1 << 20,
		EnableConsole: true,
		EnableDOM:     true,
	}
}
