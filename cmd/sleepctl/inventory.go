package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
	"github.com/sleepoutside/backend/internal/validation"
)

func newInventoryCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "List and edit inventory records",
	}
	cmd.PersistentFlags().StringVarP(&category, "category", "c", string(models.CategoryTents), "inventory category")

	manager := func() (*services.InventoryManager, error) {
		c, ok := models.ParseCategory(category)
		if !ok {
			return nil, fmt.Errorf("%w: %q", services.ErrInvalidCategory, category)
		}
		return services.NewInventoryManager(a.store, c, a.logger)
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the records of a category, or of every category with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			categories := []models.Category{m.Category()}
			if all {
				categories = models.Categories
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tID\tNAME\tPRICE")
			for _, c := range categories {
				if err := m.SwitchCategory(c); err != nil {
					return err
				}
				for _, r := range m.GetAll() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", c, r.ID, r.Name, r.Price)
				}
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "list every category")

	form := map[validation.FieldName]*string{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Validate and add a product record",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[validation.FieldName]string{validation.FieldCategory: category}
			for name, v := range form {
				values[name] = *v
			}
			if err := checkForm(values); err != nil {
				return err
			}
			m, err := manager()
			if err != nil {
				return err
			}
			rec, err := m.AddRecord(validation.ProductRequest(values))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", rec.ID, rec.Name)
			return nil
		},
	}
	formFlags(add, form)

	patch := map[validation.FieldName]*string{}
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a record; only flags that are set are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.NewProductValidator()
			var req models.UpdateRecordRequest
			changed := 0
			for name, val := range patch {
				flag := flagName(name)
				if !cmd.Flags().Changed(flag) {
					continue
				}
				if msg := v.ValidateField(name, *val); msg != "" {
					return fmt.Errorf("%s: %s", flag, msg)
				}
				applyPatch(&req, name, *val)
				changed++
			}
			if changed == 0 {
				return fmt.Errorf("nothing to update")
			}
			m, err := manager()
			if err != nil {
				return err
			}
			rec, err := m.UpdateRecord(args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", rec.ID, rec.Name)
			return nil
		},
	}
	formFlags(update, patch)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			if err := m.DeleteRecord(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the category as a JSON array",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			out, err := m.Export()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the category with a JSON array read from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			payload, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			m, err := manager()
			if err != nil {
				return err
			}
			n, err := m.Import(string(payload))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", n, m.Category())
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del, export, importCmd)
	return cmd
}

var formFields = []validation.FieldName{
	validation.FieldProductName,
	validation.FieldPrice,
	validation.FieldDescription,
	validation.FieldImageURL,
}

func flagName(name validation.FieldName) string {
	if name == validation.FieldImageURL {
		return "image"
	}
	return string(name)
}

func formFlags(cmd *cobra.Command, into map[validation.FieldName]*string) {
	for _, name := range formFields {
		v := new(string)
		into[name] = v
		cmd.Flags().StringVar(v, flagName(name), "", validation.FieldLabel(name))
	}
}

// checkForm runs the full product form validation and folds every failing
// field into one error.
func checkForm(values map[validation.FieldName]string) error {
	v := validation.NewProductValidator()
	result := v.ValidateForm(values)
	if result.IsValid {
		return nil
	}
	var msgs []string
	for _, name := range v.Fields() {
		if msg, ok := result.Errors[name]; ok {
			msgs = append(msgs, fmt.Sprintf("%s: %s", flagName(name), msg))
		}
	}
	return fmt.Errorf("invalid product:\n  %s", strings.Join(msgs, "\n  "))
}

func applyPatch(req *models.UpdateRecordRequest, name validation.FieldName, value string) {
	value = strings.TrimSpace(value)
	switch name {
	case validation.FieldProductName:
		req.Name = &value
	case validation.FieldDescription:
		req.Description = &value
	case validation.FieldImageURL:
		req.ImageURL = &value
	case validation.FieldPrice:
		p, _ := strconv.ParseFloat(value, 64)
		req.Price = &p
	}
}
