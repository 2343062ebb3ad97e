package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hal"
	"github.com/pthm/hal/lib/encoding"
)

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <route-id> [entity-file]",
		Short: "Render an entity as the HAL document of a route",
		Long: `Render reads a JSON entity and writes the HAL document the route's config
produces for it. The entity is read from stdin when no file (or "-") is
given. The self href defaults to the route path expanded with the entity.

Examples:
  hal render person people/1.json
  curl -s localhost:9000/people/1 | hal render person --self /people/1
  hal render person bob.json --format msgpack > bob.msgpack`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, args)
		},
	}
	cmd.Flags().String("self", "", "self href of the document")
	cmd.Flags().String("indent", "  ", "JSON indentation, empty for compact output")
	cmd.Flags().String("format", "json", "output format (json, msgpack)")
	return cmd
}

func (a *app) render(cmd *cobra.Command, args []string) error {
	f, reg, err := a.load()
	if err != nil {
		return err
	}
	routes, err := f.RouteTable()
	if err != nil {
		return err
	}
	route, ok := routes.Route(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", hal.ErrRouteNotFound, args[0])
	}

	data, err := readEntity(cmd.InOrStdin(), args[1:])
	if err != nil {
		return err
	}
	entity, err := hal.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding entity: %w", err)
	}

	self, _ := cmd.Flags().GetString("self")
	if self == "" {
		if self, err = hal.NewRouter(routes).Path(args[0], entity); err != nil {
			return err
		}
	}

	rep, err := a.factory(reg).Create(entity, hal.Href(self))
	if err != nil {
		return err
	}
	rep, err = hal.Configure(cmd.Context(), rep, route.Config)
	if err != nil {
		return err
	}

	codec, err := outputCodec(cmd)
	if err != nil {
		return err
	}
	return codec.Encode(cmd.OutOrStdout(), rep)
}

func readEntity(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

func outputCodec(cmd *cobra.Command) (encoding.Codec, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		indent, _ := cmd.Flags().GetString("indent")
		return encoding.JSONCodec{Type: encoding.MediaTypeHALJSON, Indent: indent}, nil
	case "msgpack":
		return encoding.HALMsgpack, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
