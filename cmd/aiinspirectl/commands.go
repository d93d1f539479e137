package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"aiinspire/models"
	"aiinspire/push"
	"aiinspire/store"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, log, done, err := connect(cmd)
		if err != nil {
			return err
		}
		defer done()
		if err := db.Migrate(); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var adminOpts struct {
	email    string
	username string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, done, err := connect(cmd)
		if err != nil {
			return err
		}
		defer done()
		u, created, err := createAdmin(cmd.Context(), db, adminOpts.email, adminOpts.username, adminOpts.password, time.Now().Unix())
		if err != nil {
			return err
		}
		verb := "promoted"
		if created {
			verb = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s: %s (%s)\n", verb, u.Username, u.ID.Hex())
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default AI platforms, social links and membership products",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, done, err := connect(cmd)
		if err != nil {
			return err
		}
		defer done()
		res, err := seed(cmd.Context(), db, time.Now().Unix())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded: %d platforms, %d social links, %d products (existing entries skipped)\n",
			res.Platforms, res.SocialMedia, res.Products)
		return nil
	},
}

var codeOpts struct {
	product       string
	count         int
	expiresInDays int
}

var genCodesCmd = &cobra.Command{
	Use:   "gen-codes",
	Short: "Generate a batch of redemption codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, done, err := connect(cmd)
		if err != nil {
			return err
		}
		defer done()
		codes, err := generateCodes(cmd.Context(), db, codeOpts.product, codeOpts.count, codeOpts.expiresInDays, time.Now().Unix())
		if err != nil {
			return err
		}
		printCodes(cmd.OutOrStdout(), codes)
		return nil
	},
}

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair for web push",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, publicKey, err := push.GenerateKeys()
		if err != nil {
			return fmt.Errorf("generate VAPID keys: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Add these to your .env file:")
		fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", publicKey)
		fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", privateKey)
		fmt.Fprintln(out, "VAPID_SUBJECT=mailto:admin@example.com")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminOpts.email, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminOpts.username, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminOpts.password, "password", "", "password for a new account (min 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")

	genCodesCmd.Flags().StringVar(&codeOpts.product, "product", "", "product id or name")
	genCodesCmd.Flags().IntVar(&codeOpts.count, "count", 10, "number of codes")
	genCodesCmd.Flags().IntVar(&codeOpts.expiresInDays, "expires-in-days", 0, "days until unused codes expire, 0 for never")
	_ = genCodesCmd.MarkFlagRequired("product")
}

// createAdmin promotes the user with email, or creates one when none exists.
func createAdmin(ctx context.Context, st store.Users, email, username, password string, now int64) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("email is required")
	}

	existing, err := st.FindUserByAccount(ctx, email)
	switch {
	case err == nil:
		role := models.RoleAdmin
		disabled := false
		u, err := st.UpdateUser(ctx, existing.ID, store.UserUpdate{Role: &role, Disabled: &disabled}, now)
		return u, false, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}

	if username == "" {
		return nil, false, errors.New("username is required for a new admin")
	}
	if len(password) < 6 {
		return nil, false, errors.New("password must be at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		Nickname:     username,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, false, fmt.Errorf("username %q is taken", username)
		}
		return nil, false, err
	}
	return u, true, nil
}

// generateCodes resolves product by id or name and stores a new batch.
func generateCodes(ctx context.Context, st store.Membership, product string, count, expiresInDays int, now int64) ([]models.RedemptionCode, error) {
	var p *models.MembershipProduct
	var err error
	if id, idErr := primitive.ObjectIDFromHex(product); idErr == nil {
		p, err = st.GetProduct(ctx, id)
	} else {
		p, err = st.FindProductByName(ctx, product)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("product %q not found", product)
	}
	if err != nil {
		return nil, err
	}

	var expiresAt int64
	if expiresInDays > 0 {
		expiresAt = models.ExtendExpiry(0, now, expiresInDays)
	}
	codes, err := models.NewCodeBatch(p, count, expiresAt, now)
	if err != nil {
		return nil, err
	}
	if err := st.InsertCodes(ctx, codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func printCodes(w io.Writer, codes []models.RedemptionCode) {
	if len(codes) == 0 {
		return
	}
	fmt.Fprintf(w, "# batch %s, level %s, %d days\n", codes[0].BatchID, codes[0].Level, codes[0].DurationDays)
	for _, c := range codes {
		fmt.Fprintln(w, c.Code)
	}
}
