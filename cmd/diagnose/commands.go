package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/app"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// ageFlags binds --age and --age-unit on cmd.
type ageFlags struct {
	value int
	unit  string
}

func (a *ageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&a.value, "age", 0, "patient age, must be positive on v3")
	cmd.Flags().StringVar(&a.unit, "age-unit", string(medapi.AgeYear), "age unit: year or month")
}

func (a *ageFlags) age() (medapi.Age, error) { return ageFrom(a.value, a.unit) }

// ageFor is age plus the v3 rule that the patient age must be positive.
func (a *ageFlags) ageFor(api medapi.API) (medapi.Age, error) {
	if api.Version() == medapi.V3 && a.value <= 0 {
		return medapi.Age{}, fmt.Errorf("%w: --age must be a positive number on %s", medapi.ErrInvalidArgument, medapi.V3)
	}
	return a.age()
}

func (c *cli) print(cmd *cobra.Command, v any) error {
	return render(cmd.OutOrStdout(), c.output, v)
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show knowledge base information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := c.api()
			if err != nil {
				return err
			}
			info, err := api.Info(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd, info)
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		age        ageFlags
		sex        string
		maxResults int
		types      []string
	)
	cmd := &cobra.Command{
		Use:   "search <phrase>",
		Short: "Search observations by phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.api()
			if err != nil {
				return err
			}
			a, err := age.ageFor(api)
			if err != nil {
				return err
			}
			req := medapi.SearchRequest{
				Phrase:     args[0],
				Sex:        medapi.Sex(sex),
				Age:        a,
				MaxResults: maxResults,
			}
			for _, t := range types {
				req.Types = append(req.Types, medapi.SearchConceptType(t))
			}
			results, err := api.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.print(cmd, results)
		},
	}
	age.bind(cmd)
	cmd.Flags().StringVar(&sex, "sex", "", "filter by sex: male or female")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of results (default 8)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "concept types: symptom, risk_factor, lab_test")
	return cmd
}

func (c *cli) lookupCmd() *cobra.Command {
	var sex string
	cmd := &cobra.Command{
		Use:   "lookup <phrase>",
		Short: "Resolve a phrase to a single observation (v1 and v2)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.api()
			if err != nil {
				return err
			}
			result, err := app.Lookup(cmd.Context(), api, args[0], medapi.Sex(sex))
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
	cmd.Flags().StringVar(&sex, "sex", "", "filter by sex: male or female")
	return cmd
}

func (c *cli) parseCmd() *cobra.Command {
	var (
		age           ageFlags
		includeTokens bool
		contextIDs    []string
	)
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Recognize observations mentioned in free text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.api()
			if err != nil {
				return err
			}
			a, err := age.ageFor(api)
			if err != nil {
				return err
			}
			results, err := api.Parse(cmd.Context(), medapi.ParseRequest{
				Text:          args[0],
				Age:           a,
				IncludeTokens: includeTokens,
				Context:       contextIDs,
			})
			if err != nil {
				return err
			}
			return c.print(cmd, results)
		},
	}
	age.bind(cmd)
	cmd.Flags().BoolVar(&includeTokens, "include-tokens", false, "include the tokenized text")
	cmd.Flags().StringSliceVar(&contextIDs, "context", nil, "ids of observations already reported")
	return cmd
}

func (c *cli) conceptsCmd() *cobra.Command {
	var ids, types []string
	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "List concepts (v3)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := c.api()
			if err != nil {
				return err
			}
			filter := medapi.ConceptFilter{IDs: ids}
			for _, t := range types {
				filter.Types = append(filter.Types, medapi.ConceptType(t))
			}
			concepts, err := app.Concepts(cmd.Context(), api, filter)
			if err != nil {
				return err
			}
			return c.print(cmd, concepts)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "concept ids to fetch")
	cmd.Flags().StringSliceVar(&types, "types", nil, "concept types: condition, symptom, risk_factor, lab_test")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var age ageFlags
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List conditions, symptoms, risk_factors, lab_tests, observations or concepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := app.ParseKind(args[0])
			if err != nil {
				return err
			}
			api, err := c.api()
			if err != nil {
				return err
			}
			a, err := age.age()
			if kind != app.KindConcepts {
				a, err = age.ageFor(api)
			}
			if err != nil {
				return err
			}
			items, err := app.List(cmd.Context(), api, kind, a)
			if err != nil {
				return err
			}
			return c.print(cmd, items)
		},
	}
	age.bind(cmd)
	return cmd
}

func (c *cli) detailsCmd() *cobra.Command {
	var age ageFlags
	cmd := &cobra.Command{
		Use:   "details <kind> <id>",
		Short: "Show one condition, symptom, risk factor, lab test, observation or concept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := app.ParseKind(args[0])
			if err != nil {
				return err
			}
			api, err := c.api()
			if err != nil {
				return err
			}
			a, err := age.age()
			if kind != app.KindConcepts {
				a, err = age.ageFor(api)
			}
			if err != nil {
				return err
			}
			item, err := app.Details(cmd.Context(), api, kind, args[1], a)
			if err != nil {
				return err
			}
			return c.print(cmd, item)
		},
	}
	age.bind(cmd)
	return cmd
}
