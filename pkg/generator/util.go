package generator

import "google.golang.org/genai"

// seedToPtrInt32 は domain の *int64 を SDK 用の *int32 に変換するのだ。
// 範囲外の値は上位ビットが切り捨てられるが、シードの再現性としてはそれで問題ないのだ。
func seedToPtrInt32(s *int64) *int32 {
	if s == nil {
		return nil
	}
	v := int32(*s)
	return &v
}

// temperatureToPtrFloat32 は *float64 を SDK 用の *float32 に変換します。
func temperatureToPtrFloat32(t *float64) *float32 {
	if t == nil {
		return nil
	}
	v := float32(*t)
	return &v
}

// generationConfig は温度とシードだけを指定した設定を作ります。どちらも無ければ nil です。
func generationConfig(temperature *float64, seed *int64) *genai.GenerateContentConfig {
	if temperature == nil && seed == nil {
		return nil
	}
	return &genai.GenerateContentConfig{
		Temperature: temperatureToPtrFloat32(temperature),
		Seed:        seedToPtrInt32(seed),
	}
}
