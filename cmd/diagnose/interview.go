package main

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/app"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

func (c *cli) interviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a multi-turn diagnosis interview",
	}
	cmd.AddCommand(
		c.interviewStartCmd(),
		c.interviewAnswerCmd(),
		c.interviewShowCmd(),
		c.interviewTriageCmd(),
		c.interviewExplainCmd(),
		c.interviewSpecialistCmd(),
		c.interviewSuggestCmd(),
		c.interviewRationaleCmd(),
		c.interviewDeleteCmd(),
	)
	return cmd
}

func (c *cli) interviewStartCmd() *cobra.Command {
	var (
		age      ageFlags
		sex      string
		text     string
		evidence []string
		extras   map[string]string
		id       string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an interview from a complaint and/or initial evidence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := parseEvidence(evidence)
			if err != nil {
				return err
			}
			iv, err := c.interviews(cmd.Context())
			if err != nil {
				return err
			}
			a, err := age.ageFor(iv.API())
			if err != nil {
				return err
			}
			session, err := iv.Start(cmd.Context(), app.StartRequest{
				Sex:         medapi.Sex(sex),
				Age:         a,
				Text:        text,
				Evidence:    items,
				Extras:      parseExtras(extras),
				InterviewID: id,
			})
			if err != nil {
				return err
			}
			return c.print(cmd, session)
		},
	}
	age.bind(cmd)
	cmd.Flags().StringVar(&sex, "sex", "", "patient sex: male or female")
	cmd.Flags().StringVar(&text, "text", "", "free-text complaint recognized into initial evidence")
	cmd.Flags().StringSliceVarP(&evidence, "evidence", "e", nil, "evidence as id[:present|absent|unknown[:source]]")
	cmd.Flags().StringToStringVar(&extras, "extra", nil, "extras sent with every turn, key=value")
	cmd.Flags().StringVar(&id, "interview-id", "", "interview id (generated when empty)")
	_ = cmd.MarkFlagRequired("sex")
	return cmd
}

func (c *cli) interviewAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <interview-id> <evidence>...",
		Short: "Answer the current question and get the next one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseEvidence(args[1:])
			if err != nil {
				return err
			}
			iv, err := c.interviews(cmd.Context())
			if err != nil {
				return err
			}
			session, err := iv.Answer(cmd.Context(), args[0], items)
			if err != nil {
				return err
			}
			return c.print(cmd, session)
		},
	}
}

// sessionCmd builds a command that takes an interview id and prints fn's result.
func (c *cli) sessionCmd(use, short string, fn func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <interview-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := c.interviews(cmd.Context())
			if err != nil {
				return err
			}
			out, err := fn(cmd, iv, args[0])
			if err != nil {
				return err
			}
			return c.print(cmd, out)
		},
	}
}

func (c *cli) interviewShowCmd() *cobra.Command {
	return c.sessionCmd("show", "Show the stored interview state", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		return iv.Show(cmd.Context(), id)
	})
}

func (c *cli) interviewTriageCmd() *cobra.Command {
	return c.sessionCmd("triage", "Evaluate how urgently the patient needs care", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		return iv.Triage(cmd.Context(), id)
	})
}

func (c *cli) interviewSpecialistCmd() *cobra.Command {
	return c.sessionCmd("specialist", "Recommend a specialist and consultation channel (v3)", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		return iv.RecommendSpecialist(cmd.Context(), id)
	})
}

func (c *cli) interviewRationaleCmd() *cobra.Command {
	return c.sessionCmd("rationale", "Explain why the current question was asked (v2, v3)", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		return iv.Rationale(cmd.Context(), id)
	})
}

func (c *cli) interviewDeleteCmd() *cobra.Command {
	return c.sessionCmd("delete", "Delete a stored interview", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		if err := iv.Delete(cmd.Context(), id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": id}, nil
	})
}

func (c *cli) interviewSuggestCmd() *cobra.Command {
	var (
		method     string
		maxResults int
	)
	cmd := c.sessionCmd("suggest", "Suggest further observations to ask about", func(cmd *cobra.Command, iv *app.Interviewer, id string) (any, error) {
		return iv.Suggest(cmd.Context(), id, medapi.SuggestOptions{
			Method:     medapi.SuggestMethod(method),
			MaxResults: maxResults,
		})
	})
	cmd.Flags().StringVar(&method, "method", "", "suggest method: symptoms, risk_factors or red_flags")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of suggestions (default 8)")
	return cmd
}

func (c *cli) interviewExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <interview-id> <condition-id>",
		Short: "List evidence supporting and conflicting with a condition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := c.interviews(cmd.Context())
			if err != nil {
				return err
			}
			out, err := iv.Explain(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.print(cmd, out)
		},
	}
}
