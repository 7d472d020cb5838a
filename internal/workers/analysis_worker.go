package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/voicedeskhq/voicedesk/internal/services"
)

// AnalysisWorkerPool drains the post-call analysis stream. Jobs are enqueued
// at call teardown and processed here, fully decoupled from the audio path:
// a failed job is logged and acked, never retried into a live call's way.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Analysis   services.AnalysisService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

// AnalysisStream is the default Redis stream calls are enqueued on.
const AnalysisStream = "calls:analyze"

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Analysis == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Analysis must be set")
	}
	if p.Stream == "" {
		p.Stream = AnalysisStream
	}
	if p.Group == "" {
		p.Group = "analysis-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "a"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	callID := getStr("call_id")
	if callID == "" {
		return
	}
	transcript := getStr("transcript")

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"call_id":  callID,
	})

	analysis, err := p.Analysis.Analyze(ctx, callID, transcript)
	if err != nil {
		// Enrichment is best effort; the call record stays unenriched.
		log.WithError(err).Warn("post-call analysis failed")
		return
	}
	if analysis == nil {
		log.Debug("post-call analysis skipped")
		return
	}

	log.WithField("outcome", analysis.Outcome).Info("post-call analysis stored")
}
