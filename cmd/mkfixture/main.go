// mkfixture writes a small CP932-encoded surgical-case CSV with
// representative remarks tokens, for tests and local development.
// Usage: go run ./cmd/mkfixture --out testdata/cases-cp932.csv
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/japanese"
)

var rows = [][]string{
	{"症例ID", "患者番号", "患者氏名(漢字)", "手術実施日", "年齢", "実施診療科", "確定術式フリー検索", "術後病名", "リマークス（看護）"},
	{"C-0001", "100234", "山田太郎", "2025/04/01", "72歳", "外科", "腹腔鏡下胆嚢摘出術", "胆嚢結石症", "★サージセル[2]枚,★クリップ[3]個"},
	{"C-0002", "100518", "佐藤花子", "2025/04/01", "65", "整形外科", "人工膝関節置換術", "変形性膝関節症", "★洗浄[生理食塩水250ml][1]本、★消毒"},
	{"C-0003", "100777", "鈴木一郎", "2025/04/02", "約58歳", "外科", "鼠径ヘルニア根治術", "鼠径ヘルニア", "特記事項なし"},
	{"C-0003", "999999", "重複データ", "2025/04/02", "99", "外科", "重複行", "重複", ""},
	{"C-0004", "100901", "高橋次郎", "", "", "泌尿器科", "経尿道的膀胱腫瘍切除術", "膀胱腫瘍", "★ガーゼ[10]枚"},
}

func main() {
	out := flag.String("out", "testdata/cases-cp932.csv", "output CSV path")
	flag.Parse()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
		os.Exit(1)
	}

	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode cp932: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d bytes to %s (%d data rows)\n", len(encoded), *out, len(rows)-1)
}
