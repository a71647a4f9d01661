package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanomodel/formats"
	"github.com/arthur-debert/nanomodel/internal/filter"
	"github.com/arthur-debert/nanomodel/internal/server"
	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/storage"
)

type listOptions struct {
	where  []string
	search string
	expr   string
	order  string
	desc   bool
	offset int
	limit  int
}

func (cli *ViperCLI) executeInitCommand(demo, force bool) error {
	path := cli.dbPath()
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if !force {
			return &CLIError{
				Operation:   "init",
				Cause:       fmt.Sprintf("snapshot %s already exists", path),
				Suggestions: []string{"Pass --force to replace it", "Choose another file with --db"},
			}
		}
		if err := os.Remove(path); err != nil {
			return NewStoreError("init", err, CommonSuggestions.CheckPerms)
		}
	}

	store, err := cli.openStore("init")
	if err != nil {
		return err
	}
	defer store.Close()

	if demo {
		opts, err := cli.modelOptions()
		if err != nil {
			return err
		}
		users, posts, err := demoModels(opts...)
		if err != nil {
			return NewStoreError("init", err)
		}
		for _, m := range []*nanomodel.Model{users, posts} {
			if err := store.Define(m); err != nil {
				return NewStoreError("init", err)
			}
		}
	}

	if err := store.Commit(); err != nil {
		return NewStoreError("init", err, CommonSuggestions.CheckPerms)
	}
	logOperation("init", "", "db", path, "demo", demo)
	cli.confirm("Initialized %s with %d collection(s)", path, store.Catalog().Len())
	return nil
}

func (cli *ViperCLI) executeCollectionsCommand() error {
	store, err := cli.openStore("list collections")
	if err != nil {
		return err
	}
	defer store.Close()

	format := cli.outputFormat()
	if format == "table" && !cli.viperInst.GetBool("quiet") {
		snap := store.Snapshot()
		size := "empty"
		if info, err := os.Stat(cli.dbPath()); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Fprintf(cli.out, "%s (%s), updated %s\n\n", cli.dbPath(), size, humanize.Time(snap.UpdatedAt))
	}

	table := formats.Table{Name: "collections", Columns: []string{"name", "fields", "rows", "references"}}
	for _, m := range store.Catalog().Models() {
		var refs []string
		for _, f := range m.Fields() {
			if target := f.Type.Target(); target != nil {
				refs = append(refs, f.Name+"->"+target.Name())
			}
		}
		table.Rows = append(table.Rows, nanomodel.Data{
			"name":       m.Name(),
			"fields":     len(m.Fields()),
			"rows":       m.Count(),
			"references": strings.Join(refs, ", "),
		})
	}
	return cli.render(format, table)
}

func (cli *ViperCLI) executeSchemaCommand(collection string) error {
	store, err := cli.openStore("show schema")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "show schema", collection)
	if err != nil {
		return err
	}

	table := formats.Table{Name: m.Name(), Columns: []string{"field", "type", "args", "default"}}
	table.Rows = append(table.Rows, nanomodel.Data{"field": nanomodel.IDField, "type": nanomodel.KindID.String()})
	for _, f := range m.Fields() {
		desc := f.Type.Describe()
		args := make([]string, len(desc.Args))
		for i, arg := range desc.Args {
			args[i] = fmt.Sprint(arg)
		}
		table.Rows = append(table.Rows, nanomodel.Data{
			"field":   f.Name,
			"type":    desc.Name,
			"args":    strings.Join(args, ", "),
			"default": desc.DefaultValue,
		})
	}
	return cli.render(cli.outputFormat(), table)
}

func (cli *ViperCLI) executeDefineCommand(collection string, specs []string) error {
	store, err := cli.openStore("define collection")
	if err != nil {
		return err
	}
	defer store.Close()

	if existing, ok := store.Model(collection); ok {
		return &CLIError{
			Operation:   "define collection",
			Cause:       fmt.Sprintf("collection %s already exists", existing.Name()),
			Suggestions: []string{fmt.Sprintf("Run 'nanomodel schema %s' to see its fields", existing.Name())},
		}
	}

	doc := nanomodel.Document{Name: collection}
	for _, spec := range specs {
		nd, err := parseFieldSpec(spec, store.Catalog(), collection)
		if err != nil {
			return NewValidationError("define collection", "field", spec, err.Error(),
				"Use name[:TYPE[:Target]][=default], e.g. author:REF:User or likes:NUMBER=0")
		}
		if _, dup := doc.Fields.Lookup(nd.Field); dup {
			return NewValidationError("define collection", "field", nd.Field, "Each field may be declared once")
		}
		doc.Fields = append(doc.Fields, nd)
	}

	opts, err := cli.modelOptions()
	if err != nil {
		return err
	}
	m, err := nanomodel.Deserialize(doc, store.Catalog().Bindings(), opts...)
	if err != nil {
		return NewStoreError("define collection", err, CommonSuggestions.ListCollections)
	}
	if err := store.Define(m); err != nil {
		return NewStoreError("define collection", err)
	}
	if err := store.Commit(); err != nil {
		return NewStoreError("define collection", err, CommonSuggestions.CheckPerms)
	}
	logOperation("define", m.Name(), "fields", m.Fields().Names())
	cli.confirm("Defined %s with %d field(s)", m.Name(), len(m.Fields()))
	return nil
}

func (cli *ViperCLI) executeExportCommand(collection string) error {
	store, err := cli.openStore("export")
	if err != nil {
		return err
	}
	defer store.Close()

	var codec storage.Codec
	switch format := cli.viperInst.GetString("format"); strings.ToLower(format) {
	case "", "json":
		codec = storage.JSON
	case "yaml", "yml":
		codec = storage.YAML
	default:
		return NewValidationError("export", "format", format, "Export supports json and yaml")
	}

	var data []byte
	if collection == "" {
		data, err = codec.Marshal(store.Snapshot())
	} else {
		m, lookupErr := cli.model(store, "export", collection)
		if lookupErr != nil {
			return lookupErr
		}
		doc, ok := store.Snapshot().Collection(m.Name())
		if !ok {
			return NewCollectionError("export", collection, store.Catalog().SortedNames())
		}
		data, err = marshalDocument(codec, doc)
	}
	if err != nil {
		return NewStoreError("export", err)
	}
	_, err = cli.out.Write(data)
	return err
}

// marshalDocument encodes a single collection document with the codec's
// format.
func marshalDocument(codec storage.Codec, doc nanomodel.Document) ([]byte, error) {
	if codec == storage.YAML {
		return yaml.Marshal(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (cli *ViperCLI) executeListCommand(collection string, opts listOptions) error {
	store, err := cli.openStore("list")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "list", collection)
	if err != nil {
		return err
	}

	q := m.Query()
	if len(opts.where) > 0 {
		conds, err := filter.ParseAll(opts.where)
		if err != nil {
			return NewFilterError("list", err)
		}
		pred, err := filter.Compile(m, conds)
		if err != nil {
			return NewFilterError("list", err)
		}
		q = q.Where(pred)
	}
	if opts.search != "" {
		q = q.Where(filter.Search(m, opts.search))
	}
	if opts.expr != "" {
		pred, err := filter.Expr(m, opts.expr)
		if err != nil {
			return NewFilterError("list", err)
		}
		q = q.Where(pred)
	}
	if opts.order != "" {
		if _, ok := m.Field(opts.order); !ok && opts.order != nanomodel.IDField {
			return NewValidationError("list", "order field", opts.order,
				fmt.Sprintf("Fields of %s: %s", m.Name(), strings.Join(m.Fields().Names(), ", ")))
		}
		if opts.desc {
			q = q.OrderDesc(opts.order)
		} else {
			q = q.Order(opts.order)
		}
	}
	if opts.offset < 0 {
		return NewValidationError("list", "offset", fmt.Sprint(opts.offset), "Offset must be zero or positive")
	}
	if opts.offset > 0 {
		q = q.Offset(opts.offset)
	}
	if opts.limit >= 0 {
		q = q.Limit(opts.limit)
	}

	mainLogger.Debug("list", "collection", m.Name(), "where", opts.where, "rows", q.Count())
	return cli.render(cli.outputFormat(), formats.NewTable(m, q.All()))
}

func (cli *ViperCLI) executeGetCommand(collection, id string, resolve bool) error {
	store, err := cli.openStore("get")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "get", collection)
	if err != nil {
		return err
	}
	row := m.Get(id)
	if row == nil {
		return NewNotFoundError("get", m.Name(), id, CommonSuggestions.CheckID)
	}

	table := formats.NewTable(m, []*nanomodel.Row{row})
	if resolve {
		for _, f := range m.Fields() {
			if f.Type.Kind() != nanomodel.KindRef {
				continue
			}
			var inlined interface{}
			if target := row.Resolve(f.Name); target != nil {
				inlined = target.Export()
			}
			table.Rows[0][f.Name] = inlined
		}
	}
	return cli.render(cli.outputFormat(), table)
}

func (cli *ViperCLI) executeCreateCommand(collection string, id int64, assignments []string) error {
	store, err := cli.openStore("create")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "create", collection)
	if err != nil {
		return err
	}
	data, err := parseAssignments("create", m, assignments)
	if err != nil {
		return err
	}
	if id != 0 {
		if m.Exists(id) {
			return NewValidationError("create", "id", fmt.Sprint(id),
				fmt.Sprintf("%s %d already exists; omit --id to assign one", m.Name(), id))
		}
		data[nanomodel.IDField] = id
	}
	cli.warnDanglingRefs(m, data)

	row, err := m.Create(data)
	if err != nil {
		return NewStoreError("create", err)
	}
	if err := store.Commit(); err != nil {
		return NewStoreError("create", err, CommonSuggestions.CheckPerms)
	}
	logOperation("create", m.Name(), "id", row.ID())
	return cli.render(cli.outputFormat(), formats.NewTable(m, []*nanomodel.Row{row}))
}

func (cli *ViperCLI) executeUpdateCommand(collection, id string, assignments []string) error {
	store, err := cli.openStore("update")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "update", collection)
	if err != nil {
		return err
	}
	data, err := parseAssignments("update", m, assignments)
	if err != nil {
		return err
	}
	cli.warnDanglingRefs(m, data)

	values := make(nanomodel.Data, len(data))
	for field, raw := range data {
		ft, _ := m.Field(field)
		v, err := ft.Coerce(raw)
		if err != nil {
			return NewStoreError("update", err)
		}
		values[field] = v
	}

	row := m.Update(id, func(r *nanomodel.Row) {
		for field, v := range values {
			r.Set(field, v)
		}
	})
	if row == nil {
		return NewNotFoundError("update", m.Name(), id, CommonSuggestions.CheckID)
	}
	if err := store.Commit(); err != nil {
		return NewStoreError("update", err, CommonSuggestions.CheckPerms)
	}
	logOperation("update", m.Name(), "id", row.ID(), "fields", len(values))
	return cli.render(cli.outputFormat(), formats.NewTable(m, []*nanomodel.Row{row}))
}

func (cli *ViperCLI) executeDeleteCommand(collection, id string) error {
	store, err := cli.openStore("delete")
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := cli.model(store, "delete", collection)
	if err != nil {
		return err
	}
	row := m.Delete(id)
	if row == nil {
		return NewNotFoundError("delete", m.Name(), id, CommonSuggestions.CheckID)
	}

	for name, fields := range store.Catalog().Referencing(m) {
		child, _ := store.Model(name)
		for _, field := range fields {
			n := child.Where(func(r *nanomodel.Row) bool {
				ref, ok := r.Ref(field)
				return ok && ref.Target() == m && fmt.Sprint(ref.RawID()) == fmt.Sprint(row.ID())
			}).Count()
			if n > 0 {
				fmt.Fprintf(cli.errOut, "warning: %d %s row(s) still reference %s %d through %s\n",
					n, child.Name(), m.Name(), row.ID(), field)
			}
		}
	}

	if err := store.Commit(); err != nil {
		return NewStoreError("delete", err, CommonSuggestions.CheckPerms)
	}
	logOperation("delete", m.Name(), "id", row.ID())
	cli.confirm("Deleted %s %d", m.Name(), row.ID())
	return nil
}

func (cli *ViperCLI) executeServeCommand(ctx context.Context, addr string, watch bool, limit int) error {
	store, err := cli.openStore("serve")
	if err != nil {
		return err
	}
	defer store.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(store, server.WithLogger(mainLogger), server.WithDefaultLimit(limit))
	watchPath := ""
	if watch {
		watchPath = cli.dbPath()
	}
	cli.confirm("Serving %s on %s", cli.dbPath(), addr)
	if err := srv.Run(ctx, addr, watchPath); err != nil && !errors.Is(err, context.Canceled) {
		return WrapError("serve", err)
	}
	return nil
}

// warnDanglingRefs reports REF values that do not resolve yet.
func (cli *ViperCLI) warnDanglingRefs(m *nanomodel.Model, data nanomodel.Data) {
	for field, v := range data {
		ft, _ := m.Field(field)
		target := ft.Target()
		if v == nil || target == nil {
			continue
		}
		if !target.Exists(v) {
			fmt.Fprintf(cli.errOut, "warning: %s %v does not exist; %s.%s will not resolve\n",
				target.Name(), v, m.Name(), field)
		}
	}
}

// render writes table in the named output format.
func (cli *ViperCLI) render(format string, table formats.Table) error {
	f, err := formats.Get(format)
	if err != nil {
		return NewValidationError("render output", "format", format,
			"Available formats: "+strings.Join(formats.List(), ", "))
	}
	return f.Render(cli.out, table)
}
