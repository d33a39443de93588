package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/contractintel/cip-client/internal/api"
	"github.com/contractintel/cip-client/internal/chat"
	"github.com/contractintel/cip-client/internal/domain"
	"github.com/contractintel/cip-client/internal/tokens"
)

var (
	createContractID string

	tokenCounter = tokens.NewCounter()
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage contract agents",
}

func init() {
	agentsCreateCmd.Flags().StringVar(&createContractID, "contract", "", "contract id to bind at creation")

	agentsCmd.AddCommand(
		agentsListCmd,
		agentsCreateCmd,
		agentsDeleteCmd,
		agentsRenameCmd,
		agentsAddContractCmd,
		agentsChatCmd,
	)
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			agents, err := cli.queries.Agents(ctx)
			if err != nil {
				return err
			}
			if len(agents) == 0 {
				fmt.Println("No agents.")
				return nil
			}
			// Resolve bound-contract names from the cached list when present
			_, _ = cli.queries.Contracts(ctx)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCONTRACT")
			for _, a := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.AgentID, a.Name, cli.queries.ContractName(a.SelectedContract))
			}
			return w.Flush()
		})
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			agentID, err := cli.queries.CreateAgent(ctx, args[0], createContractID)
			if err != nil {
				return err
			}
			fmt.Printf("Created agent %s\n", agentID)
			return nil
		})
	},
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			if err := cli.queries.DeleteAgent(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		})
	},
}

var agentsRenameCmd = &cobra.Command{
	Use:   "rename <agent-id> <new-name>",
	Short: "Rename an agent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			if err := cli.queries.RenameAgent(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Renamed.")
			return nil
		})
	},
}

var agentsAddContractCmd = &cobra.Command{
	Use:   "add-contract <agent-id> <contract-id>",
	Short: "Bind a contract to an agent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			if err := cli.queries.AddContractToAgent(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Contract bound.")
			return nil
		})
	},
}

var agentsChatCmd = &cobra.Command{
	Use:   "chat <agent-id>",
	Short: "Chat with an agent, streaming replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protected(cmd, func(ctx context.Context) error {
			return runChat(ctx, args[0])
		})
	},
}

func runChat(ctx context.Context, agentID string) error {
	agent, err := cli.queries.Agent(ctx, agentID)
	if err != nil {
		return err
	}
	_, _ = cli.queries.Contracts(ctx)

	fmt.Printf("Chatting with %s (contract: %s). Ctrl-D to leave.\n\n",
		agent.Name, cli.queries.ContractName(agent.SelectedContract))

	transcript := chat.NewTranscript(agent.Messages)
	for _, m := range transcript.Displayable() {
		printTurn(m)
	}
	printContextSize(agent.ModelName, transcript)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		transcript = transcript.Begin(message, float64(time.Now().Unix()))
		events, err := cli.queries.StreamAgent(ctx, agentID, message)
		if err != nil {
			return err
		}

		fmt.Print("agent> ")
		var lastStatus chat.Status
		for res := range events {
			if res.Err != nil {
				transcript = transcript.Fail()
				fmt.Printf("\n[stream error: %v]\n", res.Err)
				break
			}
			transcript = transcript.Apply(res.Event)
			if transcript.Status != lastStatus && transcript.Status != chat.StatusIdle {
				fmt.Printf("[%s] ", transcript.Status)
			}
			lastStatus = transcript.Status
			if res.Event.Type == api.StreamEventAIResponse {
				fmt.Print(res.Event.Content)
			}
		}
		fmt.Println()
		printContextSize(agent.ModelName, transcript)
	}
}

func printTurn(m domain.Message) {
	switch m.Type {
	case domain.RoleHuman:
		fmt.Printf("you> %s\n", m.Content)
	case domain.RoleAI:
		fmt.Printf("agent> %s\n", m.Content)
	}
}

func printContextSize(model string, t chat.Transcript) {
	n, err := tokenCounter.CountMessages(model, t.Messages)
	if err != nil {
		return
	}
	fmt.Printf("(context: ~%d tokens)\n", n)
}
