// Command worker runs the Ticket Conductor's Temporal worker: it registers
// every workflow and activity this module defines against one task queue,
// wires the configured LLM backend and store, and ensures the Maintenance
// Scheduler's Temporal Schedule exists before serving.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.temporal.io/sdk/client"

	cluelog "goa.design/clue/log"

	"github.com/ticketflow/conductor/config"
	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
	enginetemporal "github.com/ticketflow/conductor/engine/temporal"
	"github.com/ticketflow/conductor/hooks"
	"github.com/ticketflow/conductor/llm"
	"github.com/ticketflow/conductor/llm/anthropic"
	"github.com/ticketflow/conductor/llm/bedrock"
	"github.com/ticketflow/conductor/llm/openai"
	"github.com/ticketflow/conductor/store"
	storemongo "github.com/ticketflow/conductor/store/mongo"
	"github.com/ticketflow/conductor/telemetry"
	"github.com/ticketflow/conductor/tools"
	"github.com/ticketflow/conductor/workflows"
)

func main() {
	format := cluelog.FormatJSON
	if cluelog.IsTerminal() {
		format = cluelog.FormatTerminal
	}
	ctx := cluelog.Context(context.Background(), cluelog.WithFormat(format))

	if err := run(ctx); err != nil {
		cluelog.Error(ctx, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	llmClient, err := buildLLMClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}
	llmClient = llm.NewRateLimited(llmClient, cfg.LLM.RatePerSec, int(cfg.LLM.RatePerSec)+1)

	mongoClient, err := dialMongo(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("dial mongo: %w", err)
	}

	st, err := storemongo.New(storemongo.Options{Client: mongoClient, Database: cfg.Mongo.Database})
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	archive, err := storemongo.NewArchive(storemongo.Options{Client: mongoClient, Database: cfg.Mongo.Database})
	if err != nil {
		return fmt.Errorf("build ticket archive: %w", err)
	}

	toolsProvider, err := buildToolProvider(ctx, st, cfg.RemoteTools)
	if err != nil {
		return fmt.Errorf("build tool provider: %w", err)
	}

	publisher, err := buildPublisher(cfg.Redis)
	if err != nil {
		return fmt.Errorf("build event publisher: %w", err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	eng, err := enginetemporal.New(enginetemporal.Options{
		Client:    temporalClient,
		TaskQueue: cfg.Temporal.TaskQueue,
		DefaultActivityOptions: engine.ActivityOptions{
			StartToClose: 5 * time.Minute,
		},
		Logger:  telemetry.NewClueLogger(),
		Metrics: telemetry.NewClueMetrics(),
		Tracer:  telemetry.NewClueTracer(),
	})
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	acts := &workflows.Activities{
		LLM:                    llmClient,
		Tools:                  toolsProvider,
		Eng:                    eng,
		Hooks:                  publisher,
		Archive:                archive,
		QuestionTimeoutSeconds: 300,
	}
	if err := workflows.Register(ctx, eng, acts, engine.ActivityOptions{StartToClose: 5 * time.Minute}); err != nil {
		return fmt.Errorf("register workflows: %w", err)
	}

	if err := eng.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	if err := ensureMaintenanceSchedule(ctx, temporalClient, cfg); err != nil {
		return fmt.Errorf("ensure maintenance schedule: %w", err)
	}

	cluelog.Print(ctx, cluelog.KV{K: "task-queue", V: cfg.Temporal.TaskQueue})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cluelog.Print(ctx, cluelog.KV{K: "msg", V: "shutting down"})
	return nil
}

// buildLLMClient constructs the llm.Client backend named by cfg.Provider
// (spec §9 re-architecture point: the backend is selected and constructed
// once here, then injected into Activities — never looked up from a
// global).
func buildLLMClient(cfg config.LLM) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewFromAPIKey(cfg.APIKey, anthropic.Options{
			DefaultModel: cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
		})
	case "openai":
		return openai.NewFromAPIKey(cfg.APIKey, openai.Options{
			DefaultModel: cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  float32(cfg.Temperature),
		})
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		runtime := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.New(runtime, bedrock.Options{
			DefaultModel: cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  float32(cfg.Temperature),
		})
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}

func dialMongo(ctx context.Context, cfg config.Mongo) (*mongodriver.Client, error) {
	mongoClient, err := mongodriver.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return mongoClient, nil
}

// buildPublisher constructs the hooks.Publisher backing the ticket event
// stream (spec §6). An empty REDIS_ADDR disables streaming rather than
// failing startup, since it's a UI convenience, not required for the
// Ticket Conductor itself to run.
func buildPublisher(cfg config.Redis) (*hooks.Publisher, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	client, err := hooks.NewClient(hooks.ClientOptions{Redis: rdb, StreamMaxLen: cfg.StreamMaxLen})
	if err != nil {
		return nil, err
	}
	return hooks.NewPublisher(client), nil
}

// buildToolProvider registers the tool set for every known agent type that
// is backed by store data (spec §4.3). Agent types without a domain tool
// set (e.g. the intent classifier, orchestrator) are simply absent from the
// map; ask_user_question is bound per ticket/agent inside the specialist_run
// activity instead of here, since it needs a ticket-scoped asker.
//
// When remoteCfg names any servers, they're layered on top of the static
// provider via tools.RemoteProvider (spec §1's "remote tool-server
// discovery" external collaborator) and discovered once here at startup,
// mirroring a connection manager initializing its server connections
// before the worker starts accepting work.
func buildToolProvider(ctx context.Context, st store.Store, remoteCfg config.RemoteTools) (tools.Provider, error) {
	byAgentType := map[string][]tools.Spec{}
	for agentType := range domain.KnownAgentTypes {
		if specs := tools.ByAgentType(st, agentType); len(specs) > 0 {
			byAgentType[string(agentType)] = specs
		}
	}
	static, err := tools.NewStaticProvider(byAgentType)
	if err != nil {
		return nil, err
	}
	if len(remoteCfg.Servers) == 0 {
		return static, nil
	}

	servers := make([]tools.RemoteServer, 0, len(remoteCfg.Servers))
	for _, s := range remoteCfg.Servers {
		servers = append(servers, tools.RemoteServer{Name: s.Name, URL: s.URL})
	}
	remote := tools.NewRemoteProvider(servers, remoteCfg.AgentServerMapping, static, telemetry.NewClueLogger())
	if err := remote.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect remote tool servers: %w", err)
	}
	return remote, nil
}

// ensureMaintenanceSchedule creates the Maintenance Scheduler's Temporal
// Schedule if it doesn't already exist (spec §4.5). Recurrence lives in the
// schedule itself, not in the workflow, so re-running this on every worker
// boot is a no-op once the schedule exists. An existing schedule is left
// exactly as it is: a changed AUTO_CLOSE_CADENCE_MINUTES (or inactivity
// threshold or closure message) takes effect only for a schedule this call
// creates, not for one that already exists under the same id.
func ensureMaintenanceSchedule(ctx context.Context, temporalClient client.Client, cfg config.Config) error {
	sched := temporalClient.ScheduleClient()
	handle := sched.GetHandle(ctx, cfg.Maintenance.ScheduleID)
	if _, err := handle.Describe(ctx); err == nil {
		return nil
	}

	_, err := sched.Create(ctx, client.ScheduleOptions{
		ID: cfg.Maintenance.ScheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.Maintenance.Cadence}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        cfg.Maintenance.ScheduleID + "-run",
			Workflow:  workflows.WorkflowMaintenance,
			TaskQueue: cfg.Temporal.TaskQueue,
			Args: []any{workflows.MaintenanceInput{
				InactivityMinutes: cfg.Maintenance.InactivityMinutes,
				ClosureMessage:    cfg.Maintenance.ClosureMessage,
			}},
		},
		Overlap: client.ScheduleOverlapPolicySkip,
	})
	return err
}
