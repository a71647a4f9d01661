package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanomodel/internal/server"
)

// addInitCommand adds the init command
func (cli *ViperCLI) addInitCommand() {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new snapshot file",
		Long: `Create an empty snapshot at --db, or a sample blog with --demo.

The snapshot format follows the file extension: .yaml and .yml write YAML,
anything else JSON.

Examples:
  nanomodel init
  nanomodel --db blog.yaml init --demo
  nanomodel init --demo --force          # overwrite an existing snapshot`,

		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			force, _ := cmd.Flags().GetBool("force")
			return cli.executeInitCommand(demo, force)
		},
	}
	initCmd.Flags().Bool("demo", false, "Seed User and Post collections")
	initCmd.Flags().Bool("force", false, "Replace an existing snapshot")

	cli.rootCmd.AddCommand(initCmd)
}

// addCollectionsCommand adds the collections command
func (cli *ViperCLI) addCollectionsCommand() {
	collectionsCmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"ls"},
		Short:   "List the collections in the snapshot",
		Long: `List every collection with its field and row counts.

Examples:
  nanomodel collections
  nanomodel collections --format json`,

		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeCollectionsCommand()
		},
	}

	cli.rootCmd.AddCommand(collectionsCmd)
}

// addSchemaCommand adds the schema command
func (cli *ViperCLI) addSchemaCommand() {
	schemaCmd := &cobra.Command{
		Use:   "schema <collection>",
		Short: "Show the fields of a collection",
		Long: `Show each field of a collection with its type, arguments and default.

Examples:
  nanomodel schema post`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeSchemaCommand(args[0])
		},
	}

	cli.rootCmd.AddCommand(schemaCmd)
}

// addDefineCommand adds the define command
func (cli *ViperCLI) addDefineCommand() {
	defineCmd := &cobra.Command{
		Use:   "define <collection> <field[:TYPE[:Target]][=default]>...",
		Short: "Add a new collection",
		Long: `Add an empty collection with the given fields. TYPE is one of ID, STRING,
NUMBER, BOOLEAN or REF (default STRING). REF fields name the collection
they point at, which may be the new collection itself.

Examples:
  nanomodel define Tag label
  nanomodel define Comment body author:REF:User post:REF:Post likes:NUMBER=0
  nanomodel define Category name parent:REF:Category`,

		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeDefineCommand(args[0], args[1:])
		},
	}

	cli.rootCmd.AddCommand(defineCmd)
}

// addExportCommand adds the export command
func (cli *ViperCLI) addExportCommand() {
	exportCmd := &cobra.Command{
		Use:   "export [collection]",
		Short: "Write the snapshot or one collection to stdout",
		Long: `Write the snapshot, schemas and rows of every collection, as JSON or YAML.
Use it to convert between formats. With a collection name, only that
collection's document ({"name", "fields", "data"}) is written.

Examples:
  nanomodel export --format yaml > blog.yaml
  nanomodel --db blog.yaml export --format json
  nanomodel export post`,

		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := ""
			if len(args) == 1 {
				collection = args[0]
			}
			return cli.executeExportCommand(collection)
		},
	}

	cli.rootCmd.AddCommand(exportCmd)
}

// addListCommand adds the list command with filtering and paging flags
func (cli *ViperCLI) addListCommand() {
	listCmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List rows of a collection",
		Long: `List rows, optionally filtered, ordered and paged.

Filters (--where) use field<op>value with operators = != ~= < <= > >=;
"=" and "!=" accept alternatives separated by |. Repeated --where flags
must all match. --search matches text fields case-insensitively and
--expr takes a boolean expression over the row's fields.

Examples:
  nanomodel list user
  nanomodel list post --where author=1 --order likes --desc
  nanomodel list post --where "title~=hello" --limit 5 --offset 5
  nanomodel list post --expr 'likes > 2 && author == 1'
  nanomodel list user --search jane`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := listOptions{limit: -1}
			opts.where, _ = cmd.Flags().GetStringArray("where")
			opts.search, _ = cmd.Flags().GetString("search")
			opts.expr, _ = cmd.Flags().GetString("expr")
			opts.order, _ = cmd.Flags().GetString("order")
			opts.desc, _ = cmd.Flags().GetBool("desc")
			opts.offset, _ = cmd.Flags().GetInt("offset")
			if cmd.Flags().Changed("limit") {
				opts.limit, _ = cmd.Flags().GetInt("limit")
			}
			return cli.executeListCommand(args[0], opts)
		},
	}

	flags := listCmd.Flags()
	flags.StringArrayP("where", "w", nil, "Filter condition field<op>value (repeatable)")
	flags.StringP("search", "s", "", "Case-insensitive text search over text fields")
	flags.String("expr", "", "Boolean expression filter")
	flags.String("order", "", "Field to order by")
	flags.Bool("desc", false, "Order descending")
	flags.Int("offset", 0, "Rows to skip")
	flags.IntP("limit", "n", 0, "Maximum rows to return")

	cli.rootCmd.AddCommand(listCmd)
}

// addGetCommand adds the get command
func (cli *ViperCLI) addGetCommand() {
	getCmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Retrieve a row by ID",
		Long: `Retrieve a row by its id. With --resolve, REF fields are replaced by the
rows they point at.

Examples:
  nanomodel get user 1
  nanomodel get post 2 --resolve --format json`,

		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolve, _ := cmd.Flags().GetBool("resolve")
			return cli.executeGetCommand(args[0], args[1], resolve)
		},
	}
	getCmd.Flags().BoolP("resolve", "r", false, "Inline referenced rows")

	cli.rootCmd.AddCommand(getCmd)
}

// addCreateCommand adds the create command
func (cli *ViperCLI) addCreateCommand() {
	createCmd := &cobra.Command{
		Use:   "create <collection> [field=value]...",
		Short: "Create a new row",
		Long: `Create a row from field=value pairs. Fields left out take their default.
REF fields take the id of the referenced row.

Examples:
  nanomodel create user name="Ann Lee" handle=ann admin=true
  nanomodel create post title="Draft" likes=0 author=1
  nanomodel create user --id 10 name=Ten`,

		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			return cli.executeCreateCommand(args[0], id, args[1:])
		},
	}
	createCmd.Flags().Int64("id", 0, "Explicit id (default: assigned by --id-policy)")

	cli.rootCmd.AddCommand(createCmd)
}

// addUpdateCommand adds the update command
func (cli *ViperCLI) addUpdateCommand() {
	updateCmd := &cobra.Command{
		Use:   "update <collection> <id> field=value...",
		Short: "Update fields of a row",
		Long: `Set the given fields of one row. Other fields keep their values.

Examples:
  nanomodel update post 1 likes=4
  nanomodel update post 3 author=null`,

		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeUpdateCommand(args[0], args[1], args[2:])
		},
	}

	cli.rootCmd.AddCommand(updateCmd)
}

// addDeleteCommand adds the delete command
func (cli *ViperCLI) addDeleteCommand() {
	deleteCmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a row",
		Long: `Delete a row by id. References to it from other collections are kept and
stop resolving; a warning lists how many there are.

Examples:
  nanomodel delete post 3`,

		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeDeleteCommand(args[0], args[1])
		},
	}

	cli.rootCmd.AddCommand(deleteCmd)
}

// addServeCommand adds the serve command
func (cli *ViperCLI) addServeCommand() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot read-only over HTTP",
		Long: `Serve collections as JSON. Routes:

  GET /                            collection names and row counts
  GET /{collection}                rows, filtered by field=value query params,
                                   paged with limit/offset, ordered with
                                   order=field or order=-field, searched with q
                                   and filtered with expr
  GET /{collection}/{id}           one row
  GET /{collection}/{id}/{child}   rows of child that reference the row
  GET /health, GET /metrics

Examples:
  nanomodel serve
  nanomodel --db blog.yaml serve --addr 127.0.0.1:9000 --watch`,

		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			watch, _ := cmd.Flags().GetBool("watch")
			limit, _ := cmd.Flags().GetInt("limit")
			return cli.executeServeCommand(cmd.Context(), addr, watch, limit)
		},
	}
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("watch", false, "Reload when the snapshot file changes")
	serveCmd.Flags().Int("limit", server.DefaultLimit, "Default page size")

	cli.rootCmd.AddCommand(serveCmd)
}
