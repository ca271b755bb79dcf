package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyLaunchID   = "launch_id"
	KeyComponent  = "component"
	KeyAddr       = "addr"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyReadiness  = "readiness"
	KeyAttempts   = "attempts"
	KeyDurationMS = "duration_ms"
	KeyAssetRoot  = "asset_root"
	KeyPath       = "path"
	KeyEvent      = "event"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func LaunchID(id string) slog.Attr    { return slog.String(KeyLaunchID, id) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Readiness(s string) slog.Attr    { return slog.String(KeyReadiness, s) }
func Attempts(n int) slog.Attr        { return slog.Int(KeyAttempts, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func AssetRoot(p string) slog.Attr    { return slog.String(KeyAssetRoot, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(s int) slog.Attr          { return slog.Int(KeyStatus, s) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
