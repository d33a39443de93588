// Package queries binds the query cache to the backend client: typed reads
// per resource kind and mutations with their declared invalidation edges.
package queries

import (
	"context"
	"io"
	"log/slog"

	"github.com/contractintel/cip-client/internal/api"
	"github.com/contractintel/cip-client/internal/cache"
	"github.com/contractintel/cip-client/internal/domain"
)

// Service mediates all server reads and writes for the view layer. All
// reads go through the cache; mutations invalidate exactly the resources
// they affect.
type Service struct {
	client *api.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService creates a query service over the given client and cache.
func NewService(client *api.Client, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{client: client, cache: c, logger: logger}
}

// User fetches the current user profile.
func (s *Service) User(ctx context.Context) (*domain.User, error) {
	return cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindUser}, s.client.GetUser)
}

// Contracts fetches the user's contract list.
func (s *Service) Contracts(ctx context.Context) ([]domain.ContractBase, error) {
	return cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindContracts}, s.client.ListContracts)
}

// Contract fetches one contract with its validation-aware shape. When the
// validated fetch fails for any reason other than an invalid session, the
// unvalidated endpoint serves as fallback so the document itself still
// renders.
func (s *Service) Contract(ctx context.Context, contractID string) (*domain.Contract, error) {
	contract, err := cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindContract, ID: contractID},
		func(ctx context.Context) (*domain.Contract, error) {
			return s.client.GetContract(ctx, contractID)
		})
	if err == nil {
		return contract, nil
	}
	if domain.IsUnauthorized(err) {
		return nil, err
	}

	s.logger.Warn("validated contract fetch failed, falling back to unvalidated",
		slog.String("contract_id", contractID),
		slog.String("error", err.Error()),
	)

	base, fbErr := cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindContractUnval, ID: contractID},
		func(ctx context.Context) (*domain.ContractBase, error) {
			return s.client.GetContractUnvalidated(ctx, contractID)
		})
	if fbErr != nil {
		// Surface the original failure; the fallback was best effort
		return nil, err
	}
	return &domain.Contract{ContractBase: *base}, nil
}

// ValidationReport fetches the last stored validation report for a contract.
func (s *Service) ValidationReport(ctx context.Context, contractID string) (*domain.ValidationReport, error) {
	return cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindValidation, ID: contractID},
		func(ctx context.Context) (*domain.ValidationReport, error) {
			return s.client.GetValidationReport(ctx, contractID)
		})
}

// Agents fetches the user's agent list.
func (s *Service) Agents(ctx context.Context) ([]domain.Agent, error) {
	return cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindAgents}, s.client.ListAgents)
}

// Agent fetches one agent including its message history.
func (s *Service) Agent(ctx context.Context, agentID string) (*domain.Agent, error) {
	return cache.Get(ctx, s.cache, cache.Key{Kind: cache.KindAgent, ID: agentID},
		func(ctx context.Context) (*domain.Agent, error) {
			return s.client.GetAgent(ctx, agentID)
		})
}

// ContractName resolves a contract id to its display name from the cached
// contracts list, without a network call.
func (s *Service) ContractName(contractID string) string {
	if contractID == "" {
		return "No contract selected"
	}
	contracts, ok := cache.Peek[[]domain.ContractBase](s.cache, cache.Key{Kind: cache.KindContracts})
	if !ok {
		return "No contract selected"
	}
	for _, c := range contracts {
		if c.ContractID == contractID {
			return c.ContractName
		}
	}
	return "No contract selected"
}

// UploadContract creates a contract and invalidates the contracts list so
// the next read reflects the new entry.
func (s *Service) UploadContract(ctx context.Context, name string, contractType domain.ContractType, filename string, file io.Reader) (*domain.ContractBase, error) {
	contract, err := s.client.UploadContract(ctx, name, contractType, filename, file)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cache.Key{Kind: cache.KindContracts})
	return contract, nil
}

// FillContract triggers extraction. The mutation's own result updates the
// contract detail; the list is deliberately not invalidated.
func (s *Service) FillContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	contract, err := s.client.FillContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	cache.Put(s.cache, cache.Key{Kind: cache.KindContract, ID: contractID}, contract)
	return contract, nil
}

// ValidateContract runs validation. The fresh report replaces the cached
// one directly (write-through) rather than merely invalidating it.
func (s *Service) ValidateContract(ctx context.Context, contractID string) (*domain.ValidationReport, error) {
	report, err := s.client.ValidateContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	cache.Put(s.cache, cache.Key{Kind: cache.KindValidation, ID: contractID}, report)
	return report, nil
}

// CreateAgent creates an agent and invalidates the agents list.
func (s *Service) CreateAgent(ctx context.Context, name, selectedContract string) (string, error) {
	agentID, err := s.client.CreateAgent(ctx, name, selectedContract)
	if err != nil {
		return "", err
	}
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgents})
	return agentID, nil
}

// DeleteAgent deletes an agent and invalidates the agents list.
func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if err := s.client.DeleteAgent(ctx, agentID); err != nil {
		return err
	}
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgents})
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgent, ID: agentID})
	return nil
}

// RenameAgent renames an agent; the list and that agent's detail refetch
// on next read.
func (s *Service) RenameAgent(ctx context.Context, agentID, newName string) error {
	if err := s.client.RenameAgent(ctx, agentID, newName); err != nil {
		return err
	}
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgents})
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgent, ID: agentID})
	return nil
}

// AddContractToAgent binds a contract to an agent. Binding is refused
// client-side when the agent already has one; the backend enforces its own
// rules regardless.
func (s *Service) AddContractToAgent(ctx context.Context, agentID, contractID string) error {
	agent, err := s.Agent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.SelectedContract != "" {
		return domain.ErrRequestFailed("agent already has a bound contract")
	}

	if err := s.client.AddContractToAgent(ctx, agentID, contractID); err != nil {
		return err
	}
	s.cache.Invalidate(cache.Key{Kind: cache.KindAgent, ID: agentID})
	return nil
}

// CallAgent sends one message and returns the complete reply.
func (s *Service) CallAgent(ctx context.Context, agentID, message string) (*domain.Message, error) {
	return s.client.CallAgent(ctx, agentID, message)
}

// StreamAgent sends one message and returns the incremental reply stream.
func (s *Service) StreamAgent(ctx context.Context, agentID, message string) (<-chan api.StreamEventResult, error) {
	return s.client.StreamAgent(ctx, agentID, message)
}

// ContractPDF downloads the stored original document.
func (s *Service) ContractPDF(ctx context.Context, contractID string) ([]byte, error) {
	return s.client.GetContractPDF(ctx, contractID)
}

// ContractMarkdown downloads the derived markdown text.
func (s *Service) ContractMarkdown(ctx context.Context, contractID string) ([]byte, error) {
	return s.client.GetContractMarkdown(ctx, contractID)
}
