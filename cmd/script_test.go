package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/store"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"claudectl": func() {
			if err := Execute(); err != nil {
				os.Exit(1)
			}
		},
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("NO_COLOR", "1")
			env.Setenv(paths.EnvConfigDir, filepath.Join(env.WorkDir, "cfg"))
			env.Setenv("CLAUDECTL_LOG", filepath.Join(env.WorkDir, "debug.log"))
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"sessionid": cmdSessionID,
		},
	})
}

// cmdSessionID stores the ID of the most recently created session in an
// env var.
func cmdSessionID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("sessionid does not support negation")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: sessionid VAR")
	}

	var data model.SessionData
	p := filepath.Join(ts.Getenv(paths.EnvConfigDir), store.SessionsFile)
	if err := json.Unmarshal([]byte(ts.ReadFile(p)), &data); err != nil {
		ts.Fatalf("parse sessions: %v", err)
	}
	if len(data.Sessions) == 0 {
		ts.Fatalf("no sessions in %s", p)
	}
	latest := data.Sessions[0]
	for _, s := range data.Sessions[1:] {
		if s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	ts.Setenv(args[0], latest.ID)
}
