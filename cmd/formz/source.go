package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/consul"
	"github.com/zoobzio/formz/pkg/kubernetes"
	"github.com/zoobzio/formz/pkg/nats"
	"github.com/zoobzio/formz/pkg/redis"
	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

type sourceOptions struct {
	kind       string
	redisAddr  string
	redisDB    int
	consulAddr string
	natsURL    string
	natsBucket string
	namespace  string
	secret     bool
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "file", "Document source: file, redis, consul, nats or kubernetes")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis server address")
	cmd.Flags().Int("redis-db", 0, "Redis database index")
	cmd.Flags().String("consul-addr", "", "Consul agent address (defaults to CONSUL_HTTP_ADDR)")
	cmd.Flags().String("nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	cmd.Flags().String("nats-bucket", "forms", "JetStream key-value bucket")
	cmd.Flags().String("namespace", "default", "Kubernetes namespace")
	cmd.Flags().Bool("secret", false, "Read a Kubernetes Secret instead of a ConfigMap")
}

func readSourceFlags(cmd *cobra.Command) sourceOptions {
	var opts sourceOptions
	opts.kind, _ = cmd.Flags().GetString("source")
	opts.redisAddr, _ = cmd.Flags().GetString("redis-addr")
	opts.redisDB, _ = cmd.Flags().GetInt("redis-db")
	opts.consulAddr, _ = cmd.Flags().GetString("consul-addr")
	opts.natsURL, _ = cmd.Flags().GetString("nats-url")
	opts.natsBucket, _ = cmd.Flags().GetString("nats-bucket")
	opts.namespace, _ = cmd.Flags().GetString("namespace")
	opts.secret, _ = cmd.Flags().GetBool("secret")
	return opts
}

// openSource returns the watcher for target and a function releasing its
// connection.
func openSource(ctx context.Context, target string, opts sourceOptions) (formz.Watcher, func(), error) {
	switch opts.kind {
	case "", "file":
		return formz.NewFileWatcher(target), func() {}, nil

	case "redis":
		client := backend.NewClient(&backend.Options{Addr: opts.redisAddr, DB: opts.redisDB})
		return redis.NewWatcher(client, target, redis.WithDB(opts.redisDB)), func() { _ = client.Close() }, nil

	case "consul":
		cfg := api.DefaultConfig()
		if opts.consulAddr != "" {
			cfg.Address = opts.consulAddr
		}
		client, err := api.NewClient(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		return consul.New(client, target, consul.WithLogger(logger)), func() {}, nil

	case "nats":
		return nats.Connect(ctx, opts.natsURL, opts.natsBucket, target)

	case "kubernetes", "k8s":
		name, key, ok := strings.Cut(target, "/")
		if !ok || name == "" || key == "" {
			return nil, nil, fmt.Errorf("kubernetes target must be <name>/<key>, got %q", target)
		}
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load in-cluster config: %w", err)
		}
		client, err := k8s.NewForConfig(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		kopts := []kubernetes.Option{kubernetes.WithLogger(logger)}
		if opts.secret {
			kopts = append(kopts, kubernetes.WithResourceType(kubernetes.Secret))
		}
		return kubernetes.New(client, opts.namespace, name, key, kopts...), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q", opts.kind)
	}
}
