package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"fxradar/internal/artifact"
	"fxradar/internal/config"
	"fxradar/internal/dedupe"
	"fxradar/internal/logger"
)

// ingest lands raw snapshot messages on the artifact tree. The payload is
// written verbatim: tolerance for malformed JSON belongs to the
// materializer, not here.
func main() {
	log := logger.New("ingest")
	cfg, err := config.LoadIngest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	store := artifact.NewStore(cfg.DataDir, cfg.Category)
	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("ingest started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := landSnapshot(log, store, cache, cfg, msg); err != nil {
			log.Warn("landing snapshot failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			dlqMsg := kafka.Message{
				Value: msg.Value,
				Headers: append(msg.Headers,
					kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
					kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
					kafka.Header{Key: "error", Value: []byte(err.Error())},
					kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
				),
			}

			dlqSuccess := false
			for attempt := 0; attempt < 5; attempt++ {
				if dlqErr := dlqWriter.WriteMessages(ctx, dlqMsg); dlqErr == nil {
					dlqSuccess = true
					break
				} else {
					backoff := time.Duration(1<<uint(attempt)) * time.Second
					log.Warn("DLQ write failed, retrying",
						slog.Any("err", dlqErr),
						slog.Int("attempt", attempt+1),
						slog.Duration("backoff", backoff),
					)
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						log.Info("context canceled during DLQ retry")
						return
					}
				}
			}

			// Commit only when the DLQ holds the message; otherwise leave
			// the offset for reprocessing on restart.
			if dlqSuccess {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed message to dlq", slog.Any("err", err))
				}
			} else {
				log.Error("DLQ write exhausted retries",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// landSnapshot writes one raw snapshot to its conventional dated path.
func landSnapshot(log *slog.Logger, store *artifact.Store, cache *dedupe.Cache, cfg *config.Ingest, msg kafka.Message) error {
	if len(msg.Value) == 0 {
		return errors.New("empty snapshot payload")
	}

	sum := sha1.Sum(msg.Value)
	hash := hex.EncodeToString(sum[:])
	if cache.Observe(hash) {
		log.Debug("duplicate snapshot", slog.String("hash", hash))
		return nil
	}

	date := snapshotDate(msg, cfg.Location())
	if err := artifact.Publish(store.RawPath(date), msg.Value); err != nil {
		return err
	}

	log.Info("snapshot landed", slog.String("date", date), slog.Int("bytes", len(msg.Value)))
	return nil
}

// snapshotDate resolves the snapshot's date: a "date" message header wins,
// then a top-level "date" field in the payload, then the message time in
// the reference timezone.
func snapshotDate(msg kafka.Message, loc *time.Location) string {
	for _, h := range msg.Headers {
		if h.Key == "date" {
			if d := validDate(string(h.Value)); d != "" {
				return d
			}
		}
	}

	var peek struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(msg.Value, &peek); err == nil {
		if d := validDate(peek.Date); d != "" {
			return d
		}
	}

	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.In(loc).Format("2006-01-02")
}

func validDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return ""
	}
	return raw
}
