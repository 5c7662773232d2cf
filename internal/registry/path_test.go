package registry

import "testing"

func TestParseStreamPathAccepts(t *testing.T) {
	cases := map[string]string{
		"/live/cam1":            "cam1",
		"live/cam1":             "cam1",
		"/live/cam-1.main_hd":   "cam-1.main_hd",
		"/live/0abc?token=xyz":  "0abc",
		"live/Studio?a=1&b=two": "Studio",
	}
	for raw, want := range cases {
		p, err := ParseStreamPath(raw, "")
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if p.StreamID != want || p.App != "live" {
			t.Fatalf("%q: got %+v want id %q", raw, p, want)
		}
	}
}

func TestParseStreamPathRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"/",
		"/live",
		"/live/",
		"//cam1",
		"/live/cam1/extra",
		"/other/cam1",
		"/live/-cam",
		"/live/.hidden",
		"/live/cam 1",
		"/live/cam;rm",
		"?token=1",
	} {
		if _, err := ParseStreamPath(raw, ""); !IsInvalidPath(err) {
			t.Fatalf("%q: want invalid path, got %v", raw, err)
		}
	}
}

func TestParseStreamPathCustomApp(t *testing.T) {
	if _, err := ParseStreamPath("/studio/cam1", "studio"); err != nil {
		t.Fatalf("custom app rejected: %v", err)
	}
	if _, err := ParseStreamPath("/live/cam1", "studio"); !IsInvalidPath(err) {
		t.Fatalf("default app accepted under custom app: %v", err)
	}
}
