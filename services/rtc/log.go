package rtc

import "strconv"

// Logger is the structured logging subset the service uses.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
}

// printLogger writes to the console with println, which is all an MCU build
// has. Debug output is dropped.
type printLogger struct{}

func (printLogger) Debugw(string, ...any)       {}
func (printLogger) Infow(msg string, kv ...any) { println("Info:", msg+fields(kv)) }
func (printLogger) Warnw(msg string, kv ...any) { println("Warn:", msg+fields(kv)) }

func fields(kv []any) string {
	var out []byte
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, ' ')
		out = append(out, valueString(kv[i])...)
		out = append(out, '=')
		out = append(out, valueString(kv[i+1])...)
	}
	return string(out)
}

func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case interface{ String() string }:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "<nil>"
	default:
		return "?"
	}
}
