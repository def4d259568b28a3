package slackhdl

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"go.mongodb.org/mongo-driver/bson"

	"caisseflow/internal/api/caisse/dto"
	orderdto "caisseflow/internal/api/order/dto"
	ordermodels "caisseflow/internal/api/order/models"
	paydto "caisseflow/internal/api/payment/dto"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/utility"
	"caisseflow/internal/workflow"
)

// listPageSize caps how many entries a "liste" subcommand renders in one
// ephemeral message.
const listPageSize int64 = 20

// slashCommand is the parsed form payload of a slash command request.
type slashCommand struct {
	Command     string
	Subcommand  string
	Args        []string
	UserID      string
	UserName    string
	ChannelID   string
	ChannelName string
}

func parseSlashCommand(c fiber.Ctx) slashCommand {
	text := strings.TrimSpace(c.FormValue("text"))
	fields := strings.Fields(text)

	cmd := slashCommand{
		Command:     c.FormValue("command"),
		UserID:      c.FormValue("user_id"),
		UserName:    c.FormValue("user_name"),
		ChannelID:   c.FormValue("channel_id"),
		ChannelName: c.FormValue("channel_name"),
	}
	if len(fields) > 0 {
		cmd.Subcommand = fields[0]
		cmd.Args = fields[1:]
	}
	return cmd
}

// ack answers within the webhook timeout. Ephemeral by default.
func ack(c fiber.Ctx, text string) error {
	return c.JSON(fiber.Map{"response_type": "ephemeral", "text": text})
}

// HandleCommand routes a slash command on its first text token. The
// real work runs detached after the acknowledgement.
func (h *SlackHandler) HandleCommand(c fiber.Ctx) error {
	cmd := parseSlashCommand(c)
	h.log.WithFields(map[string]interface{}{
		"command": cmd.Command,
		"sub":     cmd.Subcommand,
		"user":    cmd.UserID,
	}).Info("💬 [SLACKBOT] slash command")

	switch cmd.Command {
	case "/commande":
		return h.handleOrderCommand(c, cmd)
	case "/paiement":
		return h.handlePaymentCommand(c, cmd)
	case "/caisse":
		return h.handleCaisseCommand(c, cmd)
	default:
		return ack(c, "Commande inconnue: "+cmd.Command)
	}
}

func (h *SlackHandler) handleOrderCommand(c fiber.Ctx, cmd slashCommand) error {
	switch cmd.Subcommand {
	case "ajouter":
		// /commande ajouter <quantité> <unité> <désignation…>
		if len(cmd.Args) < 3 {
			return ack(c, "Usage: /commande ajouter <quantité> <unité> <désignation>")
		}
		quantity, err := utility.ParseAmount(cmd.Args[0])
		if err != nil {
			return ack(c, "Quantité invalide: "+cmd.Args[0])
		}
		input := &orderdto.CreateOrderInput{
			RequesterID:   cmd.UserID,
			RequesterName: cmd.UserName,
			ChannelID:     cmd.ChannelID,
			ChannelName:   cmd.ChannelName,
			Articles: []orderdto.ArticleInput{{
				Designation: strings.Join(cmd.Args[2:], " "),
				Quantity:    quantity,
				Unit:        cmd.Args[1],
			}},
		}

		h.detach(c.Context(), "création commande", func(ctx context.Context) {
			order, err := h.orders.Create(ctx, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "création commande", err)
				return
			}
			h.announceOrder(ctx, &order)
		})
		return ack(c, "⏳ Création de la commande en cours…")

	case "liste":
		h.detach(c.Context(), "liste commandes", func(ctx context.Context) {
			// Slack messages stay readable with at most one page.
			page, err := h.orders.FindWithPagination(ctx, bson.M{
				"channelId": cmd.ChannelID,
				"statut":    workflow.StatusPending,
			}, 1, listPageSize, nil)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "liste commandes", err)
				return
			}
			if page.Total == 0 {
				h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, "Aucune commande en attente sur ce canal.")
				return
			}
			var lines []string
			for _, order := range page.Items {
				lines = append(lines, fmt.Sprintf("• %s — %d article(s)", order.IDCommande, len(order.Articles)))
			}
			if page.Total > int64(len(page.Items)) {
				lines = append(lines, fmt.Sprintf("_… et %d autre(s)_", page.Total-int64(len(page.Items))))
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				"Commandes en attente:\n"+strings.Join(lines, "\n"))
		})
		return ack(c, "⏳ Recherche des commandes…")

	case "proforma":
		// /commande proforma <id_commande> <montant> <devise> <fournisseur…>
		if len(cmd.Args) < 4 {
			return ack(c, "Usage: /commande proforma <id> <montant> <devise> <fournisseur> [url]")
		}
		idCommande := cmd.Args[0]
		amount, err := utility.ParseAmount(cmd.Args[1])
		if err != nil {
			return ack(c, "Montant invalide: "+cmd.Args[1])
		}
		supplierWords := cmd.Args[3:]
		fileURL := ""
		// A trailing http(s) token is the quotation file, not part of
		// the supplier name.
		if last := supplierWords[len(supplierWords)-1]; strings.HasPrefix(last, "http") {
			fileURL = last
			supplierWords = supplierWords[:len(supplierWords)-1]
		}
		if len(supplierWords) == 0 {
			return ack(c, "Le nom du fournisseur est obligatoire.")
		}
		input := &orderdto.AddProformaInput{
			Supplier:   strings.Join(supplierWords, " "),
			Amount:     amount,
			Currency:   strings.ToUpper(cmd.Args[2]),
			FileURL:    fileURL,
			UploadedBy: cmd.UserID,
		}

		h.detach(c.Context(), "ajout proforma", func(ctx context.Context) {
			order, err := h.orders.AddProforma(ctx, idCommande, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "ajout proforma", err)
				return
			}
			h.notifier.PostMessage(ctx, order.ChannelID, slackgw.ProformaBlocks(&order)...)
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				fmt.Sprintf("✅ Proforma de *%s* ajoutée à la commande *%s*.", input.Supplier, order.IDCommande))
		})
		return ack(c, "⏳ Ajout de la proforma…")

	case "payer":
		// /commande payer <id_commande> <montant> <devise> <mode…>
		if len(cmd.Args) < 4 {
			return ack(c, "Usage: /commande payer <id> <montant> <devise> <mode> [url preuve]")
		}
		idCommande := cmd.Args[0]
		amount, err := utility.ParseAmount(cmd.Args[1])
		if err != nil {
			return ack(c, "Montant invalide: "+cmd.Args[1])
		}
		modeWords := cmd.Args[3:]
		proofURL := ""
		if last := modeWords[len(modeWords)-1]; strings.HasPrefix(last, "http") {
			proofURL = last
			modeWords = modeWords[:len(modeWords)-1]
		}
		if len(modeWords) == 0 {
			return ack(c, "Le mode de paiement est obligatoire.")
		}
		input := &orderdto.RecordPaymentInput{
			Mode:     strings.Join(modeWords, " "),
			Amount:   amount,
			Currency: strings.ToUpper(cmd.Args[2]),
			ProofURL: proofURL,
			PaidBy:   cmd.UserID,
		}

		h.detach(c.Context(), "enregistrement paiement", func(ctx context.Context) {
			order, err := h.orders.RecordPayment(ctx, idCommande, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "enregistrement paiement", err)
				return
			}
			h.notifier.PostText(ctx, order.ChannelID,
				fmt.Sprintf("💵 Paiement de %s %s enregistré sur la commande *%s* — reste à payer %s %s",
					utility.FormatAmount(input.Amount), input.Currency, order.IDCommande,
					utility.FormatAmount(order.RemainingAmount), input.Currency))
		})
		return ack(c, "⏳ Enregistrement du paiement…")

	case "supprimer":
		// /commande supprimer <id_commande> <motif…>
		if len(cmd.Args) < 2 {
			return ack(c, "Usage: /commande supprimer <id> <motif>")
		}
		idCommande := cmd.Args[0]
		reason := strings.Join(cmd.Args[1:], " ")

		h.detach(c.Context(), "suppression commande", func(ctx context.Context) {
			order, err := h.orders.SoftDelete(ctx, idCommande, cmd.UserID, reason)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "suppression commande", err)
				return
			}
			h.notifier.PostText(ctx, cmd.ChannelID,
				fmt.Sprintf("🗑️ Commande *%s* supprimée par <@%s> — %s", order.IDCommande, cmd.UserID, reason))
		})
		return ack(c, "⏳ Suppression en cours…")

	default:
		return ack(c, "Sous-commandes: ajouter, liste, proforma, payer, supprimer")
	}
}

func (h *SlackHandler) handlePaymentCommand(c fiber.Ctx, cmd slashCommand) error {
	switch cmd.Subcommand {
	case "demander":
		// /paiement demander <montant> <devise> <bénéficiaire> <titre…>
		if len(cmd.Args) < 4 {
			return ack(c, "Usage: /paiement demander <montant> <devise> <bénéficiaire> <titre>")
		}
		amount, err := utility.ParseAmount(cmd.Args[0])
		if err != nil {
			return ack(c, "Montant invalide: "+cmd.Args[0])
		}
		input := &paydto.CreatePaymentRequestInput{
			RequesterID:   cmd.UserID,
			RequesterName: cmd.UserName,
			ChannelID:     cmd.ChannelID,
			Amount:        amount,
			Currency:      strings.ToUpper(cmd.Args[1]),
			Beneficiary:   cmd.Args[2],
			Title:         strings.Join(cmd.Args[3:], " "),
		}

		h.detach(c.Context(), "demande de paiement", func(ctx context.Context) {
			request, err := h.payments.Create(ctx, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "demande de paiement", err)
				return
			}
			ts, err := h.notifier.PostMessage(ctx, h.cfg.FinanceChannelID,
				slackgw.PaymentRequestBlocks(&request)...)
			if err == nil {
				h.rememberPaymentMessage(ctx, request.IDPaiement, ts)
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				"✅ Demande de paiement *"+request.IDPaiement+"* soumise.")
		})
		return ack(c, "⏳ Soumission de la demande de paiement…")

	case "liste":
		h.detach(c.Context(), "liste paiements", func(ctx context.Context) {
			page, err := h.payments.FindWithPagination(ctx, bson.M{"statut": workflow.StatusPending}, 1, listPageSize, nil)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "liste paiements", err)
				return
			}
			if page.Total == 0 {
				h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, "Aucune demande de paiement en attente.")
				return
			}
			var lines []string
			for _, request := range page.Items {
				lines = append(lines, fmt.Sprintf("• %s — %s (%s %s)",
					request.IDPaiement, request.Title,
					utility.FormatAmount(request.Amount), request.Currency))
			}
			if page.Total > int64(len(page.Items)) {
				lines = append(lines, fmt.Sprintf("_… et %d autre(s)_", page.Total-int64(len(page.Items))))
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				"Demandes en attente:\n"+strings.Join(lines, "\n"))
		})
		return ack(c, "⏳ Recherche des demandes…")

	case "justificatif":
		// /paiement justificatif <id_paiement> <url> [titre…]
		if len(cmd.Args) < 2 {
			return ack(c, "Usage: /paiement justificatif <id> <url> [titre]")
		}
		idPaiement := cmd.Args[0]
		input := &paydto.AddJustificatifInput{
			Type:       "url",
			URL:        cmd.Args[1],
			Title:      strings.Join(cmd.Args[2:], " "),
			UploadedBy: cmd.UserID,
		}

		h.detach(c.Context(), "ajout justificatif", func(ctx context.Context) {
			request, err := h.payments.AddJustificatif(ctx, idPaiement, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "ajout justificatif", err)
				return
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				fmt.Sprintf("✅ Justificatif ajouté à la demande *%s* (%d au total).",
					request.IDPaiement, len(request.Justificatifs)))
		})
		return ack(c, "⏳ Ajout du justificatif…")

	default:
		return ack(c, "Sous-commandes: demander, liste, justificatif")
	}
}

func (h *SlackHandler) handleCaisseCommand(c fiber.Ctx, cmd slashCommand) error {
	switch cmd.Subcommand {
	case "creer":
		// /caisse creer <type…>
		caisseType := "Centrale"
		if len(cmd.Args) > 0 {
			caisseType = strings.Join(cmd.Args, " ")
		}
		input := &dto.CreateCaisseInput{
			Type:        caisseType,
			ChannelID:   cmd.ChannelID,
			ChannelName: cmd.ChannelName,
		}

		h.detach(c.Context(), "création caisse", func(ctx context.Context) {
			caisse, err := h.caisses.Create(ctx, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "création caisse", err)
				return
			}
			h.notifier.PostMessage(ctx, cmd.ChannelID, slackgw.CaisseBlocks(&caisse)...)
		})
		return ack(c, "⏳ Création de la caisse…")

	case "solde":
		h.detach(c.Context(), "solde caisse", func(ctx context.Context) {
			caisse, err := h.caisses.FindByChannelID(ctx, cmd.ChannelID)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "solde caisse", err)
				return
			}
			h.notifier.PostMessage(ctx, cmd.ChannelID, slackgw.CaisseBlocks(&caisse)...)
		})
		return ack(c, "⏳ Lecture du solde…")

	case "alimentation":
		// /caisse alimentation <montant> <devise> [motif…]
		if len(cmd.Args) < 2 {
			return ack(c, "Usage: /caisse alimentation <montant> <devise> [motif]")
		}
		amount, err := utility.ParseAmount(cmd.Args[0])
		if err != nil {
			return ack(c, "Montant invalide: "+cmd.Args[0])
		}
		input := &dto.SubmitFundingInput{
			ChannelID:   cmd.ChannelID,
			Amount:      amount,
			Currency:    strings.ToUpper(cmd.Args[1]),
			Motif:       strings.Join(cmd.Args[2:], " "),
			RequesterID: cmd.UserID,
		}

		h.detach(c.Context(), "demande d'alimentation", func(ctx context.Context) {
			caisse, requestID, err := h.caisses.SubmitFunding(ctx, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "demande d'alimentation", err)
				return
			}
			if request := caisse.FundingRequestByID(requestID); request != nil {
				h.notifier.PostMessage(ctx, h.cfg.FinanceChannelID,
					slackgw.FundingRequestBlocks(request, caisse.ChannelName)...)
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				"✅ Demande d'alimentation *"+requestID+"* soumise à la finance.")
		})
		return ack(c, "⏳ Soumission de la demande d'alimentation…")

	case "transfert":
		// /caisse transfert <montant> <devise> <canal destination> [motif…]
		if len(cmd.Args) < 3 {
			return ack(c, "Usage: /caisse transfert <montant> <devise> <canal destination> [motif]")
		}
		amount, err := utility.ParseAmount(cmd.Args[0])
		if err != nil {
			return ack(c, "Montant invalide: "+cmd.Args[0])
		}
		input := &dto.SubmitTransferInput{
			FromChannelID: cmd.ChannelID,
			ToChannelID:   parseChannelRef(cmd.Args[2]),
			Amount:        amount,
			Currency:      strings.ToUpper(cmd.Args[1]),
			Motif:         strings.Join(cmd.Args[3:], " "),
			RequesterID:   cmd.UserID,
		}

		h.detach(c.Context(), "demande de transfert", func(ctx context.Context) {
			caisse, transferID, err := h.caisses.SubmitTransfer(ctx, input)
			if err != nil {
				h.fail(ctx, cmd.ChannelID, cmd.UserID, "demande de transfert", err)
				return
			}
			if request := caisse.TransferRequestByID(transferID); request != nil {
				h.notifier.PostMessage(ctx, h.cfg.AdminChannelID,
					slackgw.TransferRequestBlocks(request)...)
			}
			h.notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID,
				"✅ Demande de transfert *"+transferID+"* soumise aux administrateurs.")
		})
		return ack(c, "⏳ Soumission de la demande de transfert…")

	default:
		return ack(c, "Sous-commandes: creer, solde, alimentation, transfert")
	}
}

// parseChannelRef accepts either a raw channel id or the Slack mention
// form <#C123|name>.
func parseChannelRef(raw string) string {
	if strings.HasPrefix(raw, "<#") {
		raw = strings.TrimPrefix(raw, "<#")
		raw = strings.TrimSuffix(raw, ">")
		if i := strings.IndexByte(raw, '|'); i >= 0 {
			raw = raw[:i]
		}
	}
	return raw
}

// announceOrder posts the approval card to the admin channel and
// anchors the message ts on the order for later in-place updates.
func (h *SlackHandler) announceOrder(ctx context.Context, order *ordermodels.Order) {
	ts, err := h.notifier.PostMessage(ctx, h.cfg.AdminChannelID, slackgw.OrderBlocks(order)...)
	if err != nil {
		return
	}
	if _, err := h.orders.UpdateOne(ctx,
		bson.M{"id_commande": order.IDCommande},
		bson.M{"messageTs": ts}, nil); err != nil {
		h.log.WithError(err).Warnf("💬 [SLACKBOT] message anchor for %s not saved", order.IDCommande)
	}
}

// rememberPaymentMessage anchors the finance-channel message ts on the
// payment request.
func (h *SlackHandler) rememberPaymentMessage(ctx context.Context, idPaiement, ts string) {
	if _, err := h.payments.UpdateOne(ctx,
		bson.M{"id_paiement": idPaiement},
		bson.M{"messageTs": ts}, nil); err != nil {
		h.log.WithError(err).Warnf("💬 [SLACKBOT] message anchor for %s not saved", idPaiement)
	}
}
