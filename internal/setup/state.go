package setup

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultStateFile is the progress file written by the setup procedure.
const DefaultStateFile = ".setup_progress"

// Mode selects which lifecycle strategy applies.
type Mode string

const (
	ModeContainer Mode = "container"
	ModeManual    Mode = "manual"
	ModeUnset     Mode = ""
)

// DBMode reports whether a local database emulator was configured.
type DBMode string

const (
	DBLocal  DBMode = "local"
	DBRemote DBMode = "remote"
	DBUnset  DBMode = ""
)

// State is an immutable snapshot of the persisted setup choices.
// It is read once per invocation and threaded down to the controller.
type State struct {
	Mode    Mode
	DBMode  DBMode
	ModTime time.Time // mtime of the state file; zero when the file is absent
}

// Resolve reads the setup-state file at path. A missing file or malformed
// content yields an unset state rather than an error: the rest of the tool
// treats unset as a defined, safe state (container mode with a warning).
func Resolve(path string) State {
	st := State{Mode: ModeUnset, DBMode: DBUnset}
	fi, err := os.Stat(path)
	if err != nil {
		return st
	}
	st.ModTime = fi.ModTime()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return st
	}
	st.Mode = parseMode(v.GetString("data.setup_method"))
	st.DBMode = parseDBMode(v.GetString("data.supabase_setup_method"))
	return st
}

func parseMode(s string) Mode {
	switch s {
	case "manual":
		return ModeManual
	case "docker", "container":
		return ModeContainer
	default:
		return ModeUnset
	}
}

func parseDBMode(s string) DBMode {
	switch s {
	case "local", "manual":
		return DBLocal
	case "cloud", "remote":
		return DBRemote
	default:
		return DBUnset
	}
}

// Effective returns the mode the controller should act on: unset defaults to
// container. The second return reports whether the defaulting happened so the
// caller can warn.
func (s State) Effective() (Mode, bool) {
	if s.Mode == ModeUnset {
		return ModeContainer, true
	}
	return s.Mode, false
}
