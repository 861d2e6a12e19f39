package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/chino"
	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/logger"
)

type searchFlags struct {
	where  []string
	or     bool
	sort   []string
	result string
	limit  int
	offset int
	all    bool
	dryRun bool
}

func (a *app) searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search documents or users",
	}
	cmd.AddCommand(
		a.searchTarget(mode.Documents, "documents <schema_id>", "Search the documents of a schema"),
		a.searchTarget(mode.Users, "users <user_schema_id>", "Search the users of a user schema"),
	)
	return cmd
}

func (a *app) searchTarget(endpoint mode.Endpoint, use, short string) *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Example: `  chino search documents 0b0c... --where age:gte:18 --where city:in:[Rome,Milan] --sort desc:age
  chino search users 7f3e... --where username:eq:alice --result USERNAME_EXISTS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := buildSearch(a.client.Search().Query(), f)
			if err != nil {
				return err
			}
			if f.dryRun {
				body, err := b.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}

			ctx := cmd.Context()
			logger.From(ctx).Debug("searching",
				zap.String("endpoint", string(endpoint)),
				zap.String("id", args[0]),
				zap.Bool("all", f.all))

			var res chino.SearchResult
			if f.all {
				req, err := b.Build()
				if err != nil {
					return err
				}
				if endpoint == mode.Users {
					res, err = a.client.Search().AllUsers(ctx, args[0], req)
				} else {
					res, err = a.client.Search().AllDocuments(ctx, args[0], req)
				}
				if err != nil {
					return err
				}
			} else {
				b.Limit(f.limit).Offset(f.offset)
				if endpoint == mode.Users {
					res, err = b.Users(ctx, args[0])
				} else {
					res, err = b.Documents(ctx, args[0])
				}
				if err != nil {
					return err
				}
			}
			return a.render(cmd.OutOrStdout(), searchView(res))
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.where, "where", "w", nil, "condition as field:op:value, repeatable (ops: eq ne gt gte lt lte in nin wildcard)")
	fl.BoolVar(&f.or, "or", false, "join conditions with or instead of and")
	fl.StringArrayVarP(&f.sort, "sort", "s", nil, "sort as [asc:|desc:]field, repeatable, first has priority")
	fl.StringVarP(&f.result, "result", "r", string(mode.FullContent), "result type: FULL_CONTENT, ONLY_ID, EXISTS or USERNAME_EXISTS")
	fl.IntVar(&f.limit, "limit", 0, "page size (0 uses the server default)")
	fl.IntVar(&f.offset, "offset", 0, "number of results to skip")
	fl.BoolVar(&f.all, "all", false, "fetch every page")
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the request body without sending it")
	return cmd
}

// buildSearch feeds the flags into b. The builder records the first mistake,
// so only the final Err is checked.
func buildSearch(b *chino.SearchBuilder, f searchFlags) (*chino.SearchBuilder, error) {
	rt, err := mode.ParseResultType(strings.ToUpper(f.result))
	if err != nil {
		return nil, err
	}
	b.ResultType(rt)

	for i, raw := range f.where {
		field, op, value, err := parseCondition(raw)
		if err != nil {
			return nil, err
		}
		switch {
		case i == 0:
			b.Where(field)
		case f.or:
			b.Or(field)
		default:
			b.And(field)
		}
		b.Condition(op, value)
	}

	for _, raw := range f.sort {
		order, field, ok := strings.Cut(raw, ":")
		if !ok {
			order, field = "asc", raw
		}
		switch strings.ToLower(order) {
		case "asc":
			b.SortAscBy(field)
		case "desc":
			b.SortDescBy(field)
		default:
			return nil, fmt.Errorf("sort %q: order must be asc or desc", raw)
		}
	}
	return b, b.Err()
}

// parseCondition splits field:op:value. The value is read as a YAML flow
// scalar or sequence, so 42, 4.5, true, null and [a, b] keep their types.
// Dates stay strings. Quote a value to force a string.
func parseCondition(raw string) (string, filter.Operator, any, error) {
	field, rest, ok := strings.Cut(raw, ":")
	if !ok || field == "" {
		return "", 0, nil, fmt.Errorf("condition %q: want field:op:value", raw)
	}
	token, text, ok := strings.Cut(rest, ":")
	if !ok {
		return "", 0, nil, fmt.Errorf("condition %q: want field:op:value", raw)
	}
	op, err := filter.ParseOperator(strings.ToLower(token))
	if err != nil {
		return "", 0, nil, fmt.Errorf("condition %q: %w", raw, err)
	}
	value, err := parseValue(text)
	if err != nil {
		return "", 0, nil, fmt.Errorf("condition %q: %w", raw, err)
	}
	return field, op, value, nil
}

func parseValue(text string) (any, error) {
	if text == "" {
		return "", nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		// Unparseable text such as a wildcard pattern is a plain string.
		return text, nil //nolint:nilerr
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	v, err := nodeValue(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", text, err)
	}
	return v, nil
}

// nodeValue decodes a parsed YAML value. Timestamps stay the text they were
// written as.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return nil, errors.New("objects are not supported")
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeValue(n.Alias)
		}
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			return n.Value, nil
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
