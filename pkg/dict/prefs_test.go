package dict

import (
	"os"
	"path/filepath"
	"testing"
)

func selectCountOf(t *testing.T, d *Dict, needle, want string) uint32 {
	t.Helper()
	matches := d.Search([]string{needle})
	if matches == nil {
		t.Fatal("nil matches")
	}
	defer matches.Release()
	for i := 0; i < matches.Size(); i++ {
		match, _ := matches.At(i)
		if match.Userdata() == want {
			return match.SelectCount()
		}
	}
	t.Fatalf("no match for %s", want)
	return 0
}

func TestPrefsRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefs.json")

	d := newTestDict()
	defer d.Release()

	// bump Util.Debug.Log twice, Math.Vec3.Normalize once
	matches := d.Search([]string{"log"})
	matches.Select(0)
	matches.Select(0)
	matches.Release()
	matches = d.Search([]string{"norm"})
	matches.Select(0)
	matches.Release()

	d.SavePrefs(file)

	// rebuild the same dictionary with zero counts and restore
	d.Clear()
	d.AddDelimited("Math.Mat44.MultiplyVector3", '.', "Math.Mat44.MultiplyVector3", 1, 0)
	d.AddDelimited("Math.Vec3.Normalize", '.', "Math.Vec3.Normalize", 1, 0)
	d.AddDelimited("Util.Debug.Log", '.', "Util.Debug.Log", 0, 0)
	d.LoadPrefs(file)

	if got := selectCountOf(t, d, "log", "Util.Debug.Log"); got != 2 {
		t.Errorf("Util.Debug.Log selectCount = %d, want 2", got)
	}
	if got := selectCountOf(t, d, "norm", "Math.Vec3.Normalize"); got != 1 {
		t.Errorf("Math.Vec3.Normalize selectCount = %d, want 1", got)
	}
	if got := selectCountOf(t, d, "mul", "Math.Mat44.MultiplyVector3"); got != 0 {
		t.Errorf("untouched node selectCount = %d, want 0", got)
	}
}

func TestSavePrefsOmitsDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefs.json")

	d := NewDict()
	defer d.Release()
	d.AddDelimited("A.B", '.', "A.B", 0, 0)
	d.SavePrefs(file)

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("save wrote nothing: %v", err)
	}
	// nothing selected yet, so no counters and no children survive
	if string(data) != "{\"nodes\":{}}\n" {
		t.Errorf("unexpected document: %s", data)
	}
}

// the loader drains concatenated documents, later ones winning
func TestLoadPrefsMultipleDocuments(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefs.json")

	content := `{"nodes":{"children":{"A":{"children":{"B":{"selectCount":3}}}}}}
{"nodes":{"children":{"A":{"children":{"B":{"selectCount":7}}}}}}
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDict()
	defer d.Release()
	d.AddDelimited("A.B", '.', "A.B", 0, 0)
	d.LoadPrefs(file)

	if got := selectCountOf(t, d, "b", "A.B"); got != 7 {
		t.Errorf("selectCount = %d, want the later document's 7", got)
	}
}

// stale prefs segments are skipped; trie segments missing from the prefs
// keep their counts
func TestLoadPrefsStaleAndMissing(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefs.json")

	content := `{"nodes":{"children":{"Gone":{"selectCount":9},"A":{"children":{"B":{"selectCount":2}}}}}}
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDict()
	defer d.Release()
	d.AddDelimited("A.B", '.', "A.B", 0, 0)
	d.AddDelimited("A.C", '.', "A.C", 0, 4)
	d.LoadPrefs(file)

	if got := selectCountOf(t, d, "b", "A.B"); got != 2 {
		t.Errorf("A.B selectCount = %d, want 2", got)
	}
	if got := selectCountOf(t, d, "c", "A.C"); got != 4 {
		t.Errorf("A.C selectCount = %d, want its original 4", got)
	}
}

func TestLoadPrefsMissingFile(t *testing.T) {
	d := newTestDict()
	defer d.Release()

	// best-effort: nothing to load, nothing changes, no panic
	d.LoadPrefs(filepath.Join(t.TempDir(), "nope.json"))

	if got := selectCountOf(t, d, "log", "Util.Debug.Log"); got != 0 {
		t.Errorf("selectCount changed to %d", got)
	}
}

func TestLoadPrefsMalformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prefs.json")

	// first document applies, the trailing garbage is reported and dropped
	content := `{"nodes":{"children":{"A":{"children":{"B":{"selectCount":5}}}}}}
{"nodes": garbage
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDict()
	defer d.Release()
	d.AddDelimited("A.B", '.', "A.B", 0, 0)
	d.LoadPrefs(file)

	if got := selectCountOf(t, d, "b", "A.B"); got != 5 {
		t.Errorf("selectCount = %d, want 5 from the document before the bad one", got)
	}
}
