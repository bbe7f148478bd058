// Package models defines the core domain models for the dormitory mess ledger.
//
// # Source records
//
// Residents write three kinds of records, each owned by a User:
//   - MealEntry: how many meals a resident ate at a given meal time on a date
//   - SpendEntry: a shared expense (groceries, gas, ...) paid by a resident
//   - Deposit: money a resident handed to the mess manager
//
// # Menu
//
// MenuItem is a dish the mess plans to serve at a meal time. It is not
// owned by a user and does not feed the aggregation engine.
//
// # Derived records
//
// The aggregation engine recomputes two tables from the source records:
//   - MealRate: a resident's own spend divided by the meals they ate
//   - OverallCalculation: spend, meal cost, deposits and the net balance
//
// Derived records are materialized views. They are rebuilt wholesale on each
// recomputation and are not touched by writes to the source tables.
//
// # Conventions
//
//  1. IDs are auto-increment integers assigned by the database
//  2. CreatedAt/UpdatedAt are Unix timestamps (seconds)
//  3. Money is decimal.Decimal; dates are calendar dates without a zone
package models
