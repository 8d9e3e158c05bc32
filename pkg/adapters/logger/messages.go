package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Open and metadata messages (info)
		"Found JSON metadata, converting to structured store: %s": "JSONメタデータを検出しました。構造化ストアへ変換中: %s",
		"Converting %s to %s": "%s を %s へ変換中",
		"Exported %s":         "%s を書き出しました",

		// Reader component (debug)
		"Using decoder %s (look-behind %d, look-ahead %d)": "デコーダ %s を使用 (前方参照 %d, 後方参照 %d)",

		// Warnings
		"NTSC decoder selected but video color carrier is PAL; using PAL decoder instead":  "NTSCデコーダが指定されましたが、映像のカラーキャリアはPALです。PALデコーダを使用します",
		"PAL decoder selected but video color carrier is NTSC; using NTSC decoder instead": "PALデコーダが指定されましたが、映像のカラーキャリアはNTSCです。NTSCデコーダを使用します",
	})
}
