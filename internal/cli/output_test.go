package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nuvemlab/nuvem/internal/models"
)

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != OutputText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != OutputJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("unknown format should error")
	}
}

func TestWriteCloudText(t *testing.T) {
	cloud := &models.CloudView{
		Prompt:      "Qual é a palavra?",
		Words:       []models.WordCount{{Word: "foco", Count: 3}, {Word: "equipe", Count: 1}},
		TotalWords:  4,
		UniqueWords: 2,
	}
	var buf bytes.Buffer
	if err := WriteCloud(&buf, cloud, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Qual é a palavra?", "4 palavras, 2 únicas", "foco", "equipe"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCloudEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCloud(&buf, &models.CloudView{Prompt: "p"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "sem palavras válidas") {
		t.Errorf("empty cloud output: %s", buf.String())
	}
}

func TestWriteCloudJSON(t *testing.T) {
	cloud := &models.CloudView{Prompt: "p", Words: []models.WordCount{{Word: "foco", Count: 1}}}
	var buf bytes.Buffer
	if err := WriteCloud(&buf, cloud, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.CloudView
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded.Words[0].Word != "foco" {
		t.Errorf("decoded = %+v", decoded)
	}
}
