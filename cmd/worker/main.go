package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/locality-resolver/app/config"
	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/app/services"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "công cụ quản trị cho locality resolver",
	Long: `
worker nạp dữ liệu vào store, bổ sung toạ độ còn thiếu qua provider chain
và đồng bộ dữ liệu sang Meilisearch.
`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "đường dẫn file config (yaml)")
	rootCmd.AddCommand(newSeedCmd(), newBackfillCmd(), newReindexCmd(), newConfigCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withContainer nạp config, nối dây service rồi chạy fn
func withContainer(ctx context.Context, fn func(*config.Config, *services.Container, *zap.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	container, err := services.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close(context.Background())

	return fn(cfg, container, logger)
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Nạp địa điểm và college từ file yaml hoặc json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readSeedFile(file)
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(_ *config.Config, c *services.Container, _ *zap.Logger) error {
				result, err := c.Admin.Seed(cmd.Context(), data)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file seed (.yaml, .yml hoặc .json)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readSeedFile đọc file seed, định dạng theo phần mở rộng
func readSeedFile(path string) (models.SeedFile, error) {
	var data models.SeedFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("lỗi đọc file seed: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		return data, fmt.Errorf("định dạng file seed không hỗ trợ: %s", path)
	}
	if err != nil {
		return data, fmt.Errorf("lỗi parse file seed: %w", err)
	}
	return data, nil
}

func newBackfillCmd() *cobra.Command {
	var limit, concurrency int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Bổ sung toạ độ cho các địa điểm đã lưu nhưng còn thiếu",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(cfg *config.Config, c *services.Container, _ *zap.Logger) error {
				if limit <= 0 {
					limit = cfg.Worker.BatchLimit
				}
				if concurrency <= 0 {
					concurrency = cfg.Worker.Concurrency
				}

				var bar *progressbar.ProgressBar
				opts := services.BackfillOptions{
					Limit:       limit,
					Concurrency: concurrency,
					Interval:    cfg.Worker.Interval,
				}
				if isatty.IsTerminal(os.Stderr.Fd()) {
					opts.OnStart = func(total int) {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetDescription("Backfilling coordinates"),
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionShowCount(),
							progressbar.OptionClearOnFinish(),
						)
					}
					opts.OnProgress = func() { _ = bar.Add(1) }
				}

				result, err := c.Admin.BackfillMissing(cmd.Context(), opts)
				if bar != nil {
					_ = bar.Finish()
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "số bản ghi tối đa (mặc định worker.batch_limit)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "số goroutine song song (mặc định worker.concurrency)")
	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Đẩy toàn bộ bản ghi trong store sang Meilisearch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(_ *config.Config, c *services.Container, _ *zap.Logger) error {
				result, err := c.Admin.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "In config hiệu lực (đã che secret)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
