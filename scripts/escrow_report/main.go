package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Prints, per contract, how much of the escrowed amount has been collected and
// the platform fees retained on it. Read-only.
const reportQuery = `
	SELECT
		c.project_id,
		p.title,
		p.status,
		c.total_cents,
		COALESCE(SUM(CASE WHEN pi.status = 'succeeded' THEN pi.amount END), 0) AS paid_cents,
		COALESCE(SUM(CASE WHEN pi.status = 'succeeded' THEN pi.platform_fee END), 0) AS fee_cents,
		COUNT(pi.id) FILTER (WHERE pi.status NOT IN ('succeeded', 'canceled')) AS open_intents
	FROM contracts c
	JOIN projects p ON p.id = c.project_id
	LEFT JOIN payment_intents pi ON pi.project_id = c.project_id
	GROUP BY c.project_id, p.title, p.status, c.total_cents
	ORDER BY c.project_id
`

func main() {
	outstanding := flag.Bool("outstanding", false, "only list contracts that are not fully paid")
	dsn := flag.String("dsn", "", "postgres connection string (defaults to the DB_* settings)")
	flag.Parse()

	if *dsn == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
		*dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	rows, err := db.Query(reportQuery)
	if err != nil {
		log.Fatal("Failed to run report:", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tTITLE\tSTATUS\tTOTAL\tPAID\tDUE\tFEES\tOPEN")

	var totalPaid, totalFees, totalDue int64
	for rows.Next() {
		var (
			projectID, title, status string
			total, paid, fees        int64
			open                     int
		)
		if err := rows.Scan(&projectID, &title, &status, &total, &paid, &fees, &open); err != nil {
			log.Fatal("Failed to read row:", err)
		}

		due := total - paid
		if *outstanding && due <= 0 {
			continue
		}
		totalPaid += paid
		totalFees += fees
		totalDue += due

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			projectID, title, status, cents(total), cents(paid), cents(due), cents(fees), open)
	}
	if err := rows.Err(); err != nil {
		log.Fatal("Failed to read report:", err)
	}

	fmt.Fprintf(w, "\t\t\t\t%s\t%s\t%s\t\n", cents(totalPaid), cents(totalDue), cents(totalFees))
	_ = w.Flush()
}

func cents(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
