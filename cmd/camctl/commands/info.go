package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	perrors "github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the detected camera's abilities, port, storage and driver texts",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cam, err := openCamera(cfg.Driver)
	if err != nil {
		return err
	}
	defer cam.Close()

	out := cmd.OutOrStdout()

	a := cam.Abilities()
	fmt.Fprintf(out, "Model:       %s\n", a.Model)
	fmt.Fprintf(out, "Driver:      %s (%s)\n", a.Library, a.Status)
	fmt.Fprintf(out, "Device:      %s\n", a.DeviceType)
	fmt.Fprintf(out, "Operations:  %s\n", a.Operations)
	if a.USBVendor != 0 {
		fmt.Fprintf(out, "USB:         %04x:%04x\n", a.USBVendor, a.USBProduct)
	}

	p := cam.Port()
	fmt.Fprintf(out, "Port:        %s %s (%s)\n", p.Type(), p.Path(), p.Name())

	storage, err := cam.Storage(cam.session)
	if err != nil && !errors.Is(err, gphoto.NotSupported) {
		return perrors.Op("storage", err)
	}
	for _, st := range storage {
		printStorage(out, st)
	}

	for _, section := range []struct {
		title string
		get   func(*gphoto.Session) (string, error)
	}{
		{"Summary", cam.Summary},
		{"Manual", cam.Manual},
		{"About", cam.AboutDriver},
	} {
		text, err := section.get(cam.session)
		switch {
		case errors.Is(err, gphoto.NotSupported):
			text = "(not supported)\n"
		case err != nil:
			return perrors.Op(strings.ToLower(section.title), err)
		}
		fmt.Fprintf(out, "\n%s:\n%s", section.title, text)
	}

	return nil
}

func printStorage(out io.Writer, st gphoto.Storage) {
	label := st.Label
	if !st.HasLabel() || label == "" {
		label = st.BaseDir
	}
	fmt.Fprintf(out, "Storage:     %s %s/%s/%s", label, st.Type, st.Filesystem, st.Access)
	if st.HasCapacity() && st.HasFreeKB() {
		fmt.Fprintf(out, " %d/%d MB free", st.FreeKB/1024, st.CapacityKB/1024)
	}
	if st.HasFreeImages() {
		fmt.Fprintf(out, " (%d images)", st.FreeImages)
	}
	fmt.Fprintln(out)
}
