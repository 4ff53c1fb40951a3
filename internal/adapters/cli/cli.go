package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"retail-ops/internal/app"
	"retail-ops/internal/core"
)

const usage = `Usage: app <command> [args]

Commands:
  warehouses                                   list warehouses
  stock   <warehouse-id>                       show stock of a warehouse
  adjust  <warehouse-id> <product> <delta> <unit> [note]
                                               apply a signed stock change
  log     <warehouse-id> [limit]               show the stock adjustment log
  export  <warehouse-id> <file.xlsx>           write stock to a spreadsheet
  orders  [status]                             list orders
  order   <order-id>                           show one order as JSON
  status  <order-id> <status>                  change an order's status
  stats                                        show dashboard statistics`

// Run executes a one-shot CLI command, writing to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}

	switch args[0] {
	case "warehouses", "wh":
		result, err := svc.ListWarehouses(ctx)
		if err != nil {
			return err
		}
		printWarehouses(out, result.Warehouses)

	case "stock", "s":
		id, err := needID(args, 1, "app stock <warehouse-id>")
		if err != nil {
			return err
		}
		stock, err := svc.GetStock(ctx, id)
		if err != nil {
			return err
		}
		printStock(out, stock)

	case "adjust", "adj":
		if len(args) < 5 {
			return fmt.Errorf("usage: app adjust <warehouse-id> <product> <delta> <unit> [note]")
		}
		id, err := needID(args, 1, "")
		if err != nil {
			return err
		}
		delta, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("delta must be an integer, got %q", args[3])
		}
		note := ""
		if len(args) > 5 {
			note = strings.Join(args[5:], " ")
		}
		result, err := svc.AdjustStock(ctx, app.AdjustStockRequest{
			WarehouseID: id,
			ProductName: args[2],
			QtyAdded:    delta,
			Unit:        args[4],
			Notes:       note,
			Actor:       os.Getenv("USER"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d → %d %s\n", result.Product, result.PreviousQty, result.NewQty, result.Unit)

	case "log":
		id, err := needID(args, 1, "app log <warehouse-id> [limit]")
		if err != nil {
			return err
		}
		limit := 20
		if len(args) > 2 {
			if limit, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("limit must be an integer, got %q", args[2])
			}
		}
		result, err := svc.ListAdjustments(ctx, id, limit)
		if err != nil {
			return err
		}
		printAdjustments(out, result.Adjustments)

	case "export":
		if len(args) < 3 {
			return fmt.Errorf("usage: app export <warehouse-id> <file.xlsx>")
		}
		id, err := needID(args, 1, "")
		if err != nil {
			return err
		}
		result, err := svc.ExportStock(ctx, id)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[2], result.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[2], err)
		}
		fmt.Fprintf(out, "Wrote %s (%d bytes)\n", args[2], len(result.Data))

	case "orders", "o":
		status := ""
		if len(args) > 1 {
			status = args[1]
		}
		result, err := svc.ListOrders(ctx, status)
		if err != nil {
			return err
		}
		printOrders(out, result.Orders)

	case "order":
		id, err := needID(args, 1, "app order <order-id>")
		if err != nil {
			return err
		}
		result, err := svc.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Order)

	case "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: app status <order-id> <status>")
		}
		id, err := needID(args, 1, "")
		if err != nil {
			return err
		}
		result, err := svc.SetOrderStatus(ctx, app.SetOrderStatusRequest{OrderID: id, Status: args[2], Actor: os.Getenv("USER")})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s is now %s.\n", result.Order.Code, result.Order.Status)

	case "stats":
		printDashboard(out, svc.GetDashboard(ctx))

	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)

	default:
		return fmt.Errorf("unknown command: %s\n\n%s", args[0], usage)
	}
	return nil
}

func needID(args []string, i int, usageLine string) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: %s", usageLine)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return id, nil
}

func printWarehouses(out io.Writer, warehouses []core.Warehouse) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-5s %-10s %-30s %10s\n", "ID", "CODE", "NAME", "CAPACITY")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, w := range warehouses {
		fmt.Fprintf(out, "  %-5d %-10s %-30s %10d\n", w.ID, w.Code, w.Name, w.Capacity)
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printStock(out io.Writer, stock *core.WarehouseStock) {
	names := make([]string, 0, len(stock.Stock))
	for name := range stock.Stock {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  STOCK: %s (#%d)\n", stock.WarehouseName, stock.WarehouseID)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-40s %10s %-6s\n", "PRODUCT", "QTY", "UNIT")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, name := range names {
		level := stock.Stock[name]
		fmt.Fprintf(out, "  %-40s %10d %-6s\n", name, level.Qty, level.Unit)
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "  (no stock)")
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printAdjustments(out io.Writer, adjustments []core.StockAdjustment) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-19s %-20s %8s %8s  %s\n", "WHEN", "PRODUCT", "DELTA", "NEW", "NOTE")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, a := range adjustments {
		fmt.Fprintf(out, "  %-19s %-20s %+8d %8d  %s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), a.ProductName, a.Delta, a.NewQty, a.Note)
	}
}

func printOrders(out io.Writer, orders []core.Order) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-5s %-9s %-10s %-8s %6s %6s\n", "ID", "CODE", "STATUS", "PRIORITY", "STORE", "ITEMS")
	fmt.Fprintln(out, strings.Repeat("-", 52))
	for _, o := range orders {
		fmt.Fprintf(out, "  %-5d %-9s %-10s %-8s %6d %6d\n", o.ID, o.Code, o.Status, o.Priority, o.StoreID, len(o.Items))
	}
	if len(orders) == 0 {
		fmt.Fprintln(out, "  (no orders)")
	}
}

func printDashboard(out io.Writer, result *app.DashboardResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", "DASHBOARD")
	fmt.Fprintln(out, strings.Repeat("=", 62))
	for _, name := range core.Metrics {
		if msg, failed := result.Errors[name]; failed {
			fmt.Fprintf(out, "  %-22s unavailable (%s)\n", name, msg)
			continue
		}
		fmt.Fprintf(out, "  %-22s %s\n", name, formatMetric(result.Values[name]))
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func formatMetric(v any) string {
	switch m := v.(type) {
	case *core.Utilization:
		return fmt.Sprintf("%d%% (%s / %d / %d)", m.Percent, m.Precise.StringFixed(2), m.TotalStock, m.TotalCapacity)
	case *core.TopProduct:
		if m == nil {
			return "-"
		}
		return fmt.Sprintf("%s: %d %s (warehouse %d)", m.ProductName, m.AvailableQty, m.Unit, m.WarehouseID)
	default:
		return fmt.Sprint(v)
	}
}
