package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the logger type used across the project.
type Logger = zerolog.Logger

var GlobalLogger Logger

var (
	componentsFilter = make(map[string]bool)
	all              = true
	lock             = sync.RWMutex{}
)

// ComponentFilterWriter drops log lines of components disabled via ApplyComponentsFilter.
type ComponentFilterWriter struct {
	Writer io.Writer
	Name   string
}

func (w ComponentFilterWriter) Write(p []byte) (n int, err error) {
	lock.RLock()
	enabled, found := componentsFilter[w.Name]
	if !found {
		enabled = all
	}
	lock.RUnlock()

	if !enabled {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

func ApplyComponentsFilterEnv() {
	if logFilter := os.Getenv("SOLGRAPH_LOG_FILTER"); logFilter != "" {
		ApplyComponentsFilter(logFilter)
	}
}

func ApplyComponentsFilter(filter string) {
	comps := strings.Split(filter, ":")

	lock.Lock()
	defer lock.Unlock()

	for _, comp := range comps {
		if comp == "" {
			continue
		}

		enabled := true
		if comp[0] == '-' {
			enabled = false
			comp = comp[1:]
		}

		if comp == "all" {
			all = enabled
			for k := range componentsFilter {
				componentsFilter[k] = enabled
			}
		} else {
			componentsFilter[comp] = enabled
		}
	}
}

func SetupGlobalLogger(level string) {
	if err := TrySetupGlobalLevel(level); err != nil {
		panic(err)
	}
	GlobalLogger = NewLogger("global")
}

func TrySetupGlobalLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

func NewLogger(component string) Logger {
	return newConsoleLogger(component).
		With().
		Str(FieldComponent, component).
		Caller().
		Timestamp().
		Logger()
}

func NewLoggerWithWriter(component string, writer io.Writer) Logger {
	logger := zerolog.New(ComponentFilterWriter{
		Writer: writer,
		Name:   component,
	})

	return logger.
		With().
		Str(FieldComponent, component).
		Caller().
		Timestamp().
		Logger()
}

func newConsoleLogger(component string) zerolog.Logger {
	noColor := os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd()))

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			FieldComponent,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{FieldComponent},
		NoColor:       noColor,
	}
	writer := ComponentFilterWriter{
		Writer: consoleWriter,
		Name:   component,
	}
	return zerolog.New(writer)
}

func Nop() Logger {
	return zerolog.Nop()
}
