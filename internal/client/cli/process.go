package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/dmitrijs2005/mediaxfer/internal/client/media"
	"github.com/spf13/cobra"
)

func newProcessCommand(app func() *App) *cobra.Command {
	var (
		files, fields []string
		share         bool
	)
	cmd := &cobra.Command{
		Use:   "process <endpoint>",
		Short: "Upload files to a processing endpoint and save the result",
		Example: `  mediaxfer process /image/convert --file file=photo.heic --field format=png
  mediaxfer process /pdf/merge --file files=a.pdf --file files=b.pdf --share`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Process(cmd.Context(), args[0], files, fields, share)
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "file part as field=path; repeat for more files")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "form field as key=value")
	cmd.Flags().BoolVar(&share, "share", false, "share the result after it is saved")
	return cmd
}

func newShareCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "share <path>",
		Short: "Share a previously processed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Share(cmd.Context(), args[0])
		},
	}
}

// Process runs one transfer and prints "<filename>\t<location>".
func (a *App) Process(ctx context.Context, endpoint string, files, fields []string, share bool) error {
	fileArgs, err := parseAssignments("file", files)
	if err != nil {
		return err
	}
	fieldArgs, err := parseAssignments("field", fields)
	if err != nil {
		return err
	}

	spec := media.UploadSpec{Endpoint: endpoint}
	for _, f := range fileArgs {
		spec.Files = append(spec.Files, media.FilePart{FieldName: f[0], File: a.pickFile(f[1])})
	}
	if len(fieldArgs) > 0 {
		spec.Fields = make(map[string]string, len(fieldArgs))
		for _, f := range fieldArgs {
			spec.Fields[f[0]] = f[1]
		}
	}

	client, err := a.MediaClient(ctx)
	if err != nil {
		return err
	}

	res, err := client.ProcessMedia(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", res.Filename, res.LocalURI)

	if !share {
		return nil
	}
	msg, err := client.Share(ctx, res)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Share offers a file produced by an earlier run.
func (a *App) Share(ctx context.Context, uri string) error {
	tr, err := a.Transport(ctx)
	if err != nil {
		return err
	}
	msg, err := tr.Share(ctx, media.ProcessingResult{
		LocalURI: uri,
		Filename: path.Base(uri),
		Size:     -1,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) pickFile(uri string) media.PickedFile {
	f := media.PickedFile{URI: uri, Name: path.Base(uri), Size: -1}
	if fi, err := a.fs.Stat(uri); err == nil && !fi.IsDir() {
		f.Size = fi.Size()
	}
	return f
}
