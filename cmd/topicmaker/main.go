package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	delete            = "delete"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	if !cfg.Broker.Enabled() {
		printFail(errors.New("broker.seed_brokers: required"))
		return
	}

	cl, err := createClient(cfg)
	if err != nil {
		printFail(err)
		return
	}
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	err = makeTopics(sigCtx, cl, delete, cfg.Broker.Topics.Checkouts)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) (*kadm.Client, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	tlsFiles := cfg.Broker.TLS
	if tlsFiles.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(tlsFiles.CA, tlsFiles.Cert, tlsFiles.Key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl, nil
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- %q

`,
		cfg.Broker.Topics.Checkouts,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
