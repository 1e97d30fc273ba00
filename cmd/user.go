/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/ennu/db"
)

var CmdUser = &cli.Command{
	Name:  "user",
	Usage: "User account commands",
	Flags: []cli.Flag{databaseURLFlag},
	Commands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create a user account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Required: true,
					Usage:    "login email address",
				},
				&cli.StringFlag{
					Name:     "name",
					Required: true,
					Usage:    "display name",
				},
				&cli.StringFlag{
					Name:    "password",
					Sources: cli.EnvVars("ENNU_USER_PASSWORD"),
					Usage:   "login password",
				},
				&cli.BoolFlag{
					Name:  "admin",
					Usage: "grant administrator access",
				},
			},
			Action: userCreate,
		},
		{
			Name:   "list",
			Usage:  "List user accounts",
			Action: userList,
		},
	},
}

func userCreate(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if password == "" {
		return errPasswordRequired
	}

	if err := connectDB(ctx, cmd); err != nil {
		return err
	}
	defer db.Close()

	if err := db.SyncSchema(ctx); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	user, err := db.CreateUser(ctx, db.CreateUserInput{
		Email:       cmd.String("email"),
		DisplayName: cmd.String("name"),
		Password:    password,
		IsAdmin:     cmd.Bool("admin"),
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	appLogger.Info("User created", "user_id", user.ID, "admin", user.IsAdmin)
	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func userList(ctx context.Context, cmd *cli.Command) error {
	if err := connectDB(ctx, cmd); err != nil {
		return err
	}
	defer db.Close()

	users, err := db.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		role := "user"
		if user.IsAdmin {
			role = "admin"
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", user.ID, user.Email, user.DisplayName, role)
	}
	return nil
}
