package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func valid() Pipeline {
	return Pipeline{
		Job: "test-job",
		Data: Data{
			SongDir: "data/song_data",
			LogDir:  "data/log_data",
		},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: "file:test.db"},
		},
		Runtime: RuntimeConfig{ReadAhead: 1},
	}
}

func TestValidatePipeline_ValidMinimal(t *testing.T) {
	if issues := ValidatePipeline(valid()); len(issues) != 0 {
		t.Fatalf("expected no issues; got %+v", issues)
	}
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	p := valid()
	p.Job = ""
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

func TestValidatePipeline_MissingDirs(t *testing.T) {
	p := valid()
	p.Data.SongDir = ""
	p.Data.LogDir = "  "
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "data.song_dir", "must not be empty") {
		t.Errorf("missing song_dir error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "data.log_dir", "must not be empty") {
		t.Errorf("missing log_dir error; got %+v", issues)
	}
}

func TestValidatePipeline_SameDirWarns(t *testing.T) {
	p := valid()
	p.Data.LogDir = p.Data.SongDir
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "data", "same tree") {
		t.Fatalf("expected same-tree warning; got %+v", issues)
	}
}

func TestValidatePipeline_Storage(t *testing.T) {
	p := valid()
	p.Storage.Kind = "oracle"
	p.Storage.DB.DSN = ""
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Errorf("missing unknown-kind warning; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "must not be empty") {
		t.Errorf("missing dsn error; got %+v", issues)
	}

	p = valid()
	p.Storage.Kind = ""
	issues = ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "storage.kind", "must not be empty") {
		t.Fatalf("expected storage.kind error; got %+v", issues)
	}
}

func TestValidatePipeline_NegativeReadAhead(t *testing.T) {
	p := valid()
	p.Runtime.ReadAhead = -1
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "runtime.read_ahead", "must not be negative") {
		t.Fatalf("expected read_ahead error; got %+v", issues)
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "job", Message: "job must not be empty"}
	want := "error at job: job must not be empty"
	if got := iss.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
