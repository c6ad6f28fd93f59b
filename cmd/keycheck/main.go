// Command keycheck は短いテキスト生成を1回呼んで Gemini API キーを検証します。
// キーが使えれば 0、そうでなければ 1 で終了します。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shouni/gemini-image-studio/pkg/generator"
)

func main() {
	var (
		keyFlag   string
		modelFlag string
		timeout   time.Duration
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (fallbacks to GEMINI_API_KEY)")
	flag.StringVar(&modelFlag, "model", "", "model used for the check (fallbacks to GEMINI_TEXT_MODEL)")
	flag.DurationVar(&timeout, "timeout", 15*time.Second, "timeout for the check call")
	flag.Parse()

	_ = godotenv.Load()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, key, model, generator.NewGenAIModel); err != nil {
		fmt.Fprintf(os.Stderr, "key check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Gemini API key is valid")
}

func run(ctx context.Context, key, model string, newModel generator.ModelConstructor) error {
	factory := generator.NewFactory(key, newModel, generator.WithKeyCheckModel(model))
	gen, err := factory.ForKey(ctx, "")
	if err != nil {
		return err
	}
	return gen.ValidateKey(ctx)
}
