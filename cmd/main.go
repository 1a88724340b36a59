package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"aurora-agent/handler"
	"aurora-agent/internal/integrations/gemini"
	"aurora-agent/internal/integrations/huggingface"
	"aurora-agent/internal/integrations/openai"
	"aurora-agent/internal/integrations/paramstore"
	"aurora-agent/internal/integrations/whisper"
	"aurora-agent/internal/repository"
	"aurora-agent/internal/support"
	"aurora-agent/internal/usecase"
	"aurora-agent/internal/verification"
)

// llmClient is what both LLM providers offer.
type llmClient interface {
	support.Completer
	usecase.JSONCompleter
}

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	logLevel := envStr("LOG_LEVEL", "info")
	storeBackend := envStr("STORE_BACKEND", "dynamodb")
	paramSource := envStr("PARAM_SOURCE", "ssm")
	paramPrefix := envStr("PARAM_PREFIX", "/aurora")
	llmProvider := envStr("LLM_PROVIDER", "openai")
	llmModel := envStr("LLM_MODEL", "")
	llmBaseURL := envStr("LLM_BASE_URL", "")
	retentionDays := envInt("CONVERSATION_RETENTION_DAYS", 90)
	codeTTLMinutes := envInt("VERIFICATION_TTL_MINUTES", 10)
	redisAddr := envStr("REDIS_ADDR", "")
	codeBackend := verificationBackend(envStr("VERIFICATION_BACKEND", ""), redisAddr)
	allowedOrigin := envStr("ALLOWED_ORIGIN", "")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(logLevel)}))
	slog.SetDefault(logger)

	// ---- AWS SDK config, loaded only when an AWS-backed component needs it ----
	var awsCfg *aws.Config
	loadAWS := func() aws.Config {
		if awsCfg == nil {
			cfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				slog.Error("failed to load AWS config", "err", err)
				os.Exit(1)
			}
			awsCfg = &cfg
		}
		return *awsCfg
	}

	// ---- Secrets ----
	var params paramstore.Getter
	switch paramSource {
	case "ssm":
		ssmClient, err := paramstore.NewSSM(awsssm.NewFromConfig(loadAWS()))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		params = ssmClient
	case "env":
		static := paramstore.Static{}
		static.StaticToken(paramstore.Join(paramPrefix, "hf-token"), os.Getenv("HF_TOKEN"))
		static.StaticToken(paramstore.Join(paramPrefix, "groq-token"), os.Getenv("GROQ_API_KEY"))
		static.StaticToken(paramstore.Join(paramPrefix, "gemini-token"), os.Getenv("GEMINI_API_KEY"))
		params = static
	default:
		slog.Error("unknown PARAM_SOURCE", "value", paramSource)
		os.Exit(1)
	}

	// ---- Persistence ----
	var store repository.DocumentStore
	switch storeBackend {
	case "dynamodb":
		dynamoStore, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(loadAWS()), mustEnv("STATE_TABLE"))
		if err != nil {
			slog.Error("failed to create dynamodb store", "err", err)
			os.Exit(1)
		}
		store = dynamoStore
	case "postgres":
		pgStore, err := repository.OpenPostgres(ctx, mustEnv("DATABASE_URL"))
		if err != nil {
			slog.Error("failed to open postgres store", "err", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
	case "file":
		fileStore, err := repository.NewFileStore(envStr("DATA_DIR", "/tmp/aurora-data"))
		if err != nil {
			slog.Error("failed to create file store", "err", err)
			os.Exit(1)
		}
		store = fileStore
	default:
		slog.Error("unknown STORE_BACKEND", "value", storeBackend)
		os.Exit(1)
	}
	slog.Info("document store selected", "backend", storeBackend)

	retention, err := conversationRetention(retentionDays)
	if err != nil {
		slog.Error("invalid CONVERSATION_RETENTION_DAYS", "err", err)
		os.Exit(1)
	}
	conversationRepo, err := repository.NewConversationRepo(store, retention)
	if err != nil {
		slog.Error("failed to create conversation repository", "err", err)
		os.Exit(1)
	}
	userRepo, err := repository.NewUserRepo(store)
	if err != nil {
		slog.Error("failed to create user repository", "err", err)
		os.Exit(1)
	}
	voiceRepo, err := repository.NewVoiceAnalysisRepo(store)
	if err != nil {
		slog.Error("failed to create voice repository", "err", err)
		os.Exit(1)
	}
	assessmentRepo, err := repository.NewAssessmentRepo(store)
	if err != nil {
		slog.Error("failed to create assessment repository", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	var hfOpts []huggingface.Option
	if m := envStr("HF_MODEL", ""); m != "" {
		hfOpts = append(hfOpts, huggingface.WithModel(m))
	}
	classifier, err := huggingface.NewClient(params, paramPrefix, hfOpts...)
	if err != nil {
		slog.Error("failed to create emotion classifier", "err", err)
		os.Exit(1)
	}

	var llm llmClient
	switch llmProvider {
	case "openai":
		var opts []openai.Option
		if llmBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmBaseURL))
		}
		if llmModel != "" {
			opts = append(opts, openai.WithModel(llmModel))
		}
		if leaf := envStr("LLM_TOKEN_PARAMETER", ""); leaf != "" {
			opts = append(opts, openai.WithTokenParameter(leaf))
		}
		client, err := openai.NewClient(params, paramPrefix, opts...)
		if err != nil {
			slog.Error("failed to create OpenAI-compatible client", "err", err)
			os.Exit(1)
		}
		llm = client
	case "gemini":
		var opts []gemini.Option
		if llmModel != "" {
			opts = append(opts, gemini.WithModel(llmModel))
		}
		client, err := gemini.NewClient(params, paramPrefix, opts...)
		if err != nil {
			slog.Error("failed to create Gemini client", "err", err)
			os.Exit(1)
		}
		llm = client
	case "none":
		slog.Warn("no LLM provider configured; support chat and insights will degrade")
	default:
		slog.Error("unknown LLM_PROVIDER", "value", llmProvider)
		os.Exit(1)
	}

	var whisperOpts []whisper.Option
	if m := envStr("WHISPER_MODEL", ""); m != "" {
		whisperOpts = append(whisperOpts, whisper.WithModel(m))
	}
	transcriber, err := whisper.NewClient(params, paramPrefix, whisperOpts...)
	if err != nil {
		slog.Error("failed to create transcription client", "err", err)
		os.Exit(1)
	}

	// ---- Use cases ----
	var agent *support.Agent
	var insightsLLM usecase.JSONCompleter
	if llm != nil {
		agent = support.NewAgent(llm, logger)
		insightsLLM = llm
	} else {
		agent = support.NewAgent(nil, logger)
	}

	checkIn, err := usecase.NewCheckInService(classifier, nil, logger)
	if err != nil {
		slog.Error("failed to create check-in service", "err", err)
		os.Exit(1)
	}
	intake, err := usecase.NewIntakeService(classifier, logger)
	if err != nil {
		slog.Error("failed to create intake service", "err", err)
		os.Exit(1)
	}
	supportService, err := usecase.NewSupportService(agent, logger)
	if err != nil {
		slog.Error("failed to create support service", "err", err)
		os.Exit(1)
	}
	conversations, err := usecase.NewConversationService(conversationRepo, userRepo, insightsLLM, logger)
	if err != nil {
		slog.Error("failed to create conversation service", "err", err)
		os.Exit(1)
	}
	users, err := usecase.NewUserService(userRepo)
	if err != nil {
		slog.Error("failed to create user service", "err", err)
		os.Exit(1)
	}
	assessments, err := usecase.NewAssessmentService(assessmentRepo)
	if err != nil {
		slog.Error("failed to create assessment service", "err", err)
		os.Exit(1)
	}
	voice, err := usecase.NewVoiceService(voiceRepo, transcriber, logger)
	if err != nil {
		slog.Error("failed to create voice service", "err", err)
		os.Exit(1)
	}
	codeTTL := time.Duration(codeTTLMinutes) * time.Minute
	var codes usecase.CodeStore
	switch codeBackend {
	case "memory":
		slog.Warn("verification codes are kept per instance; set REDIS_ADDR when running more than one")
		codes = verification.NewStore(codeTTL)
	case "redis":
		rdb, err := verification.OpenRedis(ctx, mustValue("REDIS_ADDR", redisAddr), os.Getenv("REDIS_PASSWORD"), envInt("REDIS_DB", 0))
		if err != nil {
			slog.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		redisCodes, err := verification.NewRedisStore(rdb, envStr("REDIS_PREFIX", ""), codeTTL)
		if err != nil {
			slog.Error("failed to create redis code store", "err", err)
			os.Exit(1)
		}
		codes = redisCodes
	default:
		slog.Error("unknown VERIFICATION_BACKEND", "value", codeBackend)
		os.Exit(1)
	}
	var mailer verification.Mailer = verification.LogMailer{Logger: logger}
	if smtpUser := envStr("SMTP_USER", ""); smtpUser != "" {
		smtpMailer, err := verification.NewSMTPMailer(verification.SMTPConfig{
			Host:     envStr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt("SMTP_PORT", verification.DefaultSMTPPort),
			Username: smtpUser,
			Password: os.Getenv("SMTP_PASSWORD"),
			TTL:      codeTTL,
		})
		if err != nil {
			slog.Error("failed to create smtp mailer", "err", err)
			os.Exit(1)
		}
		mailer = smtpMailer
	} else {
		slog.Warn("SMTP_USER not set; verification codes are not mailed")
	}
	verify, err := usecase.NewVerificationService(codes, mailer, users, logger)
	if err != nil {
		slog.Error("failed to create verification service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(handler.Services{
		CheckIn:       checkIn,
		Intake:        intake,
		Support:       supportService,
		Conversations: conversations,
		Users:         users,
		Assessments:   assessments,
		Voice:         voice,
		Verification:  verify,
	}, logger, allowedOrigin)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	return mustValue(key, os.Getenv(key))
}

func mustValue(key, v string) string {
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

// conversationRetention converts CONVERSATION_RETENTION_DAYS. Negative days
// disable expiry; zero is rejected because the repository would read it as
// "use the default".
func conversationRetention(days int) (time.Duration, error) {
	switch {
	case days < 0:
		return -1, nil
	case days == 0:
		return 0, errors.New("must be positive, or negative to keep conversations forever")
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// verificationBackend picks the code store. Without an explicit choice Redis
// is used whenever it is configured, since Lambda instances do not share
// memory.
func verificationBackend(explicit, redisAddr string) string {
	if explicit != "" {
		return explicit
	}
	if redisAddr != "" {
		return "redis"
	}
	return "memory"
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
