package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/james-see/dmf2midi/pkg/converter"
	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/dmftest"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func upload(t *testing.T, target, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	NewServer(nil).Router().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	NewServer(nil).Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := get(t, path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("GET %s body = %s", path, rec.Body.String())
		}
	}
}

func TestListEngines(t *testing.T) {
	rec := get(t, "/api/v1/engines")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Engines []struct {
			ID string `json:"id"`
		} `json:"engines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Engines) == 0 || body.Engines[0].ID != "hokuto" {
		t.Errorf("engines = %+v", body.Engines)
	}
}

func TestListFormats(t *testing.T) {
	rec := get(t, "/api/v1/formats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Formats     []string `json:"formats"`
		Conversions []string `json:"conversions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(body.Conversions, converter.GetSupportedConversions()) {
		t.Errorf("conversions = %v, want %v", body.Conversions, converter.GetSupportedConversions())
	}
	if len(body.Formats) != 3 {
		t.Errorf("formats = %v", body.Formats)
	}
}

func TestConvertDMFToMIDI(t *testing.T) {
	rec := upload(t, "/api/v1/convert/dmf2midi?reset=xg", "stage1.dmf", dmftest.Scenario())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/midi" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "stage1.mid") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("MThd")) {
		t.Error("response is not a MIDI file")
	}
	// XG System On is in the output
	if !bytes.Contains(rec.Body.Bytes(), []byte{0x43, 0x10, 0x4C, 0x00, 0x00, 0x7E, 0x00, 0xF7}) {
		t.Error("reset=xg was not applied")
	}
}

func TestConvertDMFToMIDITimeoutWarning(t *testing.T) {
	base := uint32(dmftest.TrackBase(1))
	song := dmftest.Build(48, dmftest.Concat(
		[]byte{dmftest.Duration, 1, dmftest.Wait, dmftest.Jump}, dmftest.U32(base+2),
	))

	rec := upload(t, "/api/v1/convert/dmf2midi?loop=0&max_ticks=100", "endless.dmf", song)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if w := rec.Header().Get(WarningHeader); !strings.Contains(w, dmf.ErrTimeout.Error()) {
		t.Errorf("%s = %q, want the timeout warning", WarningHeader, w)
	}
}

func TestConvertDMFToMIDIErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		data   []byte
		status int
	}{
		{"no file", "/api/v1/convert/dmf2midi", nil, http.StatusBadRequest},
		{"bad signature", "/api/v1/convert/dmf2midi", []byte("MThd\x00\x00\x00\x06"), http.StatusBadRequest},
		{"unknown game", "/api/v1/convert/dmf2midi?game=kenshiro", dmftest.Scenario(), http.StatusBadRequest},
		{"bad reset", "/api/v1/convert/dmf2midi?reset=mt32", dmftest.Scenario(), http.StatusBadRequest},
		{"bad max ticks", "/api/v1/convert/dmf2midi?max_ticks=0", dmftest.Scenario(), http.StatusBadRequest},
		{"max ticks beyond 32 bit", "/api/v1/convert/dmf2midi?max_ticks=4294967296", dmftest.Scenario(), http.StatusBadRequest},
		{"malformed", "/api/v1/convert/dmf2midi", dmftest.Build(48, []byte{0x90}), http.StatusUnprocessableEntity},
		{"nothing to convert", "/api/v1/convert/dmf2midi", dmftest.Build(48, nil), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, tt.target, "song.dmf", tt.data)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestConvertMIDIToMML(t *testing.T) {
	conv := converter.New("hokuto", dmf.Options{Logger: slog.Default()})
	midiRes, err := conv.DMFToMIDI(dmftest.Scenario())
	if err != nil {
		t.Fatal(err)
	}

	rec := upload(t, "/api/v1/convert/mid2mml?dots=0&octave_reverse=true", "song.mid", midiRes.Data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "c16") {
		t.Errorf("MML = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "song.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = upload(t, "/api/v1/convert/mid2mml?dots=-1", "song.mid", midiRes.Data)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("dots=-1: status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert/dmf2midi", nil)
	rec := httptest.NewRecorder()
	NewServer(nil).Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Expose-Headers") != WarningHeader {
		t.Error("warning header is not exposed to browsers")
	}
}
